package factory

import (
	"testing"
	"time"

	"github.com/mcoot/crcon-linkbot/internal/config"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/mocks"
	"github.com/mcoot/crcon-linkbot/internal/storage/memory"
	"github.com/mcoot/crcon-linkbot/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockPoster *mocks.MockPoster
	Console    *testutil.FakeConsole
}

// NewTestApp creates an App backed by memory storage, a fake console
// authenticated by API token, and mocked clock, random and chat
func NewTestApp(t *testing.T) *TestApp {
	t.Helper()

	fake := testutil.NewFakeConsole(t)
	mockClock := mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockPoster := mocks.NewMockPoster()

	consoleCfg := config.Default().Console
	consoleCfg.BaseURL = fake.URL()
	consoleCfg.APIToken = "test-token"
	consoleCfg.MessageDelay = 0

	app, err := newWithDependencies(memory.New(), mockClock, mockRandom, fake.Server.Client(), Config{
		Console: consoleCfg,
		Jobs:    config.Default().Jobs,
		Poster:  mockPoster,
	}, testutil.NopLogger())
	if err != nil {
		t.Fatalf("creating test app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockPoster: mockPoster,
		Console:    fake,
	}
}
