package factory

import (
	"context"
	"time"

	"github.com/mcoot/gamepoints/internal/dependencies/mocks"
	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/services/auth"
	"github.com/mcoot/gamepoints/internal/storage/memory"
	"github.com/mcoot/gamepoints/internal/testutil"
)

// Identities and secrets wired into every TestApp
const (
	TestOwner        model.Identity = "owner"
	TestOwnerSecret                 = "owner-secret"
	TestScorer       model.Identity = "scorer"
	TestScorerSecret                = "scorer-secret"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockNotifier *mocks.MockNotifier
	Memory       *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() (*TestApp, error) {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockNotifier := mocks.NewMockNotifier()

	cfg := Config{
		Owner: TestOwner,
		Credentials: []string{
			string(TestOwner) + "=" + TestOwnerSecret,
			string(TestScorer) + "=" + TestScorerSecret,
		},
		AuthConfig: auth.DefaultConfig(),
	}

	app, err := newWithDependencies(context.Background(), store, mockClock, mockRandom, mockNotifier, cfg, testutil.NopLogger())
	if err != nil {
		return nil, err
	}

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockNotifier: mockNotifier,
		Memory:       store,
	}, nil
}
