package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data"
	"github.com/target/pressqueue/internal/domain/contenttype"
	"github.com/target/pressqueue/internal/domain/model"
	"github.com/target/pressqueue/internal/observability/notify"
	"github.com/target/pressqueue/internal/observability/statsd"
)

// fakeSchedule is an in-memory ScheduleStore.
type fakeSchedule struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	findErr   error
	findCalls int
	writes    map[string]time.Time
	onFind    func()
}

func newFakeSchedule(campaigns ...*model.Campaign) *fakeSchedule {
	s := &fakeSchedule{campaigns: map[string]*model.Campaign{}, writes: map[string]time.Time{}}
	for _, c := range campaigns {
		s.campaigns[c.ID] = c
	}
	return s
}

func (s *fakeSchedule) FindDueCampaigns(_ context.Context, now time.Time, limit int) ([]*model.Campaign, error) {
	s.mu.Lock()
	s.findCalls++
	onFind := s.onFind
	if s.findErr != nil {
		s.mu.Unlock()
		return nil, s.findErr
	}
	var due []*model.Campaign
	for _, c := range s.campaigns {
		if c.Publishable() && !c.NextDueAt.After(now) {
			cp := *c
			due = append(due, &cp)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].NextDueAt.Equal(due[j].NextDueAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextDueAt.Before(due[j].NextDueAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	if onFind != nil {
		onFind()
	}
	return due, nil
}

func (s *fakeSchedule) WriteNextDue(_ context.Context, campaignID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes[campaignID] = at
	if c, ok := s.campaigns[campaignID]; ok {
		c.NextDueAt = at
	}
	return nil
}

func (s *fakeSchedule) nextDue(campaignID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.writes[campaignID]
	return t, ok
}

func (s *fakeSchedule) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// fakeLedger is an in-memory JobLedger enforcing one active job per campaign.
type fakeLedger struct {
	mu      sync.Mutex
	seq     int
	jobs    map[string]*model.ContentJob
	creates int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{jobs: map[string]*model.ContentJob{}}
}

func (l *fakeLedger) CreateJob(_ context.Context, campaignID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, j := range l.jobs {
		if j.CampaignID == campaignID && !j.Status.Terminal() {
			return "", core.ErrActiveJobExists
		}
	}
	l.seq++
	l.creates++
	id := fmt.Sprintf("job-%d", l.seq)
	l.jobs[id] = &model.ContentJob{ID: id, CampaignID: campaignID, Status: model.ContentJobStatusPending}
	return id, nil
}

func (l *fakeLedger) active(jobID string) (*model.ContentJob, error) {
	j, ok := l.jobs[jobID]
	if !ok || j.Status.Terminal() {
		return nil, core.ErrJobNotFound
	}
	return j, nil
}

func (l *fakeLedger) SetStatus(_ context.Context, jobID string, status model.ContentJobStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	j, err := l.active(jobID)
	if err != nil {
		return err
	}
	j.Status = status
	return nil
}

func (l *fakeLedger) SetContent(_ context.Context, jobID string, p core.SetContentParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	j, err := l.active(jobID)
	if err != nil {
		return err
	}
	j.ContentType, j.Title, j.Body = &p.ContentType, &p.Title, &p.Body
	j.Keywords = p.Keywords
	return nil
}

func (l *fakeLedger) SetImage(_ context.Context, jobID, imageURL string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	j, err := l.active(jobID)
	if err != nil {
		return err
	}
	j.ImageURL = &imageURL
	return nil
}

func (l *fakeLedger) SetPublished(_ context.Context, jobID string, r model.PublishResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	j, err := l.active(jobID)
	if err != nil {
		return err
	}
	j.RemotePostID, j.RemotePostURL = &r.RemotePostID, &r.RemotePostURL
	j.Status = model.ContentJobStatusCompleted
	return nil
}

func (l *fakeLedger) SetFailed(_ context.Context, jobID, detail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	j, err := l.active(jobID)
	if err != nil {
		return err
	}
	j.LastError = &detail
	j.Status = model.ContentJobStatusFailed
	return nil
}

func (l *fakeLedger) forCampaign(campaignID string) []*model.ContentJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*model.ContentJob
	for _, j := range l.jobs {
		if j.CampaignID == campaignID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out
}

func (l *fakeLedger) createCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creates
}

type generatorFunc func(ctx context.Context, req model.GenerationRequest) (*model.GeneratedContent, error)

// fakeGenerator records requests and delegates to fn.
type fakeGenerator struct {
	mu       sync.Mutex
	fn       generatorFunc
	requests []model.GenerationRequest
}

func (g *fakeGenerator) GenerateTitle(_ context.Context, c *model.Campaign) (string, error) {
	return "A title about " + c.Topic, nil
}

func (g *fakeGenerator) GenerateBody(ctx context.Context, req model.GenerationRequest) (*model.GeneratedContent, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	fn := g.fn
	g.mu.Unlock()
	if fn == nil {
		return goodContent(), nil
	}
	return fn(ctx, req)
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func goodContent() *model.GeneratedContent {
	return &model.GeneratedContent{
		Title:       "Dialing in espresso",
		Body:        "<p>Grind finer.</p>",
		Keywords:    []string{"espresso", "grind"},
		ImagePrompt: "an espresso shot",
	}
}

type imageFunc func(ctx context.Context, prompt string) (string, error)

func (f imageFunc) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// fakePublisher records published content.
type fakePublisher struct {
	mu        sync.Mutex
	fn        func(ctx context.Context, site *model.Site, content *model.GeneratedContent) (*model.PublishResult, error)
	published []model.GeneratedContent
}

func (p *fakePublisher) Publish(
	ctx context.Context,
	site *model.Site,
	content *model.GeneratedContent,
) (*model.PublishResult, error) {
	p.mu.Lock()
	p.published = append(p.published, *content)
	fn := p.fn
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, site, content)
	}
	return &model.PublishResult{RemotePostID: "101", RemotePostURL: site.BaseURL + "/?p=101"}, nil
}

type fakeSites map[string]*model.Site

func (s fakeSites) GetSite(_ context.Context, siteID string) (*model.Site, error) {
	site, ok := s[siteID]
	if !ok {
		return nil, core.ErrSiteNotFound
	}
	return site, nil
}

func defaultSites() fakeSites {
	return fakeSites{"site-1": {ID: "site-1", Name: "Blog", BaseURL: "https://blog.example.com"}}
}

// fakeAudit records audit events.
type fakeAudit struct {
	mu     sync.Mutex
	events []model.AuditEvent
	err    error
}

func (a *fakeAudit) Record(_ context.Context, e model.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return a.err
}

func (a *fakeAudit) types(campaignID string) []model.AuditEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.AuditEventType
	for _, e := range a.events {
		if e.CampaignID == campaignID {
			out = append(out, e.Type)
		}
	}
	return out
}

// captureNotifier records failure notifications.
type captureNotifier struct {
	mu       sync.Mutex
	payloads []notify.ContentFailurePayload
}

func (n *captureNotifier) NotifyContentFailure(_ context.Context, p notify.ContentFailurePayload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
}

func (n *captureNotifier) all() []notify.ContentFailurePayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.ContentFailurePayload(nil), n.payloads...)
}

// harness wires a QueueProcessor over in-memory fakes.
type harness struct {
	schedule  *fakeSchedule
	ledger    *fakeLedger
	generator *fakeGenerator
	images    core.ImageGenerator
	publisher *fakePublisher
	sites     fakeSites
	audit     *fakeAudit
	notifier  *captureNotifier
	clock     *data.FixedTimeProvider
	metrics   *statsd.Recorder
	cfg       config.ProcessorConfig
	lock      core.CycleLock
}

func newHarness(campaigns ...*model.Campaign) *harness {
	return &harness{
		schedule:  newFakeSchedule(campaigns...),
		ledger:    newFakeLedger(),
		generator: &fakeGenerator{},
		images: imageFunc(func(context.Context, string) (string, error) {
			return "https://img.example.com/1.png", nil
		}),
		publisher: &fakePublisher{},
		sites:     defaultSites(),
		audit:     &fakeAudit{},
		notifier:  &captureNotifier{},
		clock:     data.NewFixedTimeProvider(time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC)),
		metrics:   &statsd.Recorder{},
		cfg: config.ProcessorConfig{
			Interval:          time.Minute,
			BatchSize:         50,
			GenerationTimeout: time.Second,
			ImageTimeout:      time.Second,
			PublishTimeout:    time.Second,
		},
	}
}

func (h *harness) processor() *QueueProcessor {
	reg := contenttype.Default()
	p, err := NewQueueProcessor(QueueProcessorOptions{
		Schedule:  h.schedule,
		Ledger:    h.ledger,
		Generator: h.generator,
		Publisher: h.publisher,
		Sites:     h.sites,
		Images:    h.images,
		Audit:     h.audit,
		Notifier:  h.notifier,
		Lock:      h.lock,
		Registry:  reg,
		Selector:  contenttype.NewSelector(reg, rand.New(rand.NewPCG(1, 2))),
		Config:    h.cfg,
		Clock:     h.clock,
		Metrics:   h.metrics,
	})
	if err != nil {
		panic(err)
	}
	return p
}

var errBoom = errors.New("boom")
