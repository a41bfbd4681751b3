// Package mocks provides gomock implementations of the pressqueue ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	ledger := mocks.NewMockJobLedger(ctrl)
//	ledger.EXPECT().CreateJob(gomock.Any(), "camp-1").Return("job-1", nil)
package mocks

// ScheduleStore, JobLedger and CycleLock drive a processing cycle.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=pipeline_mock.go github.com/target/pressqueue/internal/core ScheduleStore,JobLedger,CycleLock

// External collaborators of a campaign attempt.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=collaborators_mock.go github.com/target/pressqueue/internal/core ContentGenerator,ImageGenerator,Publisher,SiteResolver,AuditSink

// CampaignRepository backs the campaign write boundary.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=campaign_repository_mock.go github.com/target/pressqueue/internal/core CampaignRepository
