package factory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gamepoints/internal/model"
	redisstorage "github.com/mcoot/gamepoints/internal/storage/redis"
	"github.com/mcoot/gamepoints/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	app, err := NewTestApp()
	s.Require().NoError(err)
	s.app = app
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

// Test: owner logs in, awards and resets, and every sink sees the events
func (s *IntegrationSuite) TestCompleteScoringFlow() {
	s.app.MockRandom.QueueString("TOKEN1")

	session, err := s.app.AuthService.Login(s.ctx, TestOwner, TestOwnerSecret)
	s.Require().NoError(err)
	s.Equal("sess_TOKEN1", session.Token)

	caller, err := s.app.AuthService.ValidateSession(session.Token)
	s.Require().NoError(err)

	balance, err := s.app.Ledger.Award(s.ctx, caller.Identity, "alice", 50, 1)
	s.Require().NoError(err)
	s.Equal(uint64(50), balance)

	s.app.MockClock.Advance(time.Second)
	balance, err = s.app.Ledger.Award(s.ctx, caller.Identity, "alice", 25, 1)
	s.Require().NoError(err)
	s.Equal(uint64(75), balance)

	count, err := s.app.Ledger.PlayerCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)

	old, err := s.app.Ledger.Reset(s.ctx, caller.Identity, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(75), old)

	count, err = s.app.Ledger.PlayerCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), count)

	s.Len(s.app.MockNotifier.EventsOfType(model.EventPointsAwarded), 2)
	resets := s.app.MockNotifier.EventsOfType(model.EventPointsReset)
	s.Require().Len(resets, 1)
	s.Equal(uint64(75), resets[0].Points)

	s.Equal(75.0, s.counterValue("gamepoints_ledger_points_awarded_total"))
	s.Equal(75.0, s.counterValue("gamepoints_ledger_points_reset_total"))
}

// counterValue reads the value of an unlabelled counter from the app's registry
func (s *IntegrationSuite) counterValue(name string) float64 {
	families, err := s.app.Metrics.Registry().Gather()
	s.Require().NoError(err)
	for _, family := range families {
		if family.GetName() == name {
			s.Require().Len(family.GetMetric(), 1)
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	s.Failf("metric not found", "%s", name)
	return 0
}

// Test: a logged-in identity that is not the owner cannot mutate
func (s *IntegrationSuite) TestNonOwnerRejected() {
	s.app.MockRandom.QueueString("TOKEN2")

	session, err := s.app.AuthService.Login(s.ctx, TestScorer, TestScorerSecret)
	s.Require().NoError(err)

	_, err = s.app.Ledger.Award(s.ctx, session.Identity, "alice", 10, model.GenericGameID)
	s.ErrorIs(err, model.ErrUnauthorized)

	balance, err := s.app.Ledger.Balance(s.ctx, "alice")
	s.Require().NoError(err)
	s.Zero(balance)
	s.Empty(s.app.MockNotifier.Events())
}

// Test: reconstructing against the same store keeps the owner
func (s *IntegrationSuite) TestRestartKeepsOwner() {
	cfg := Config{Owner: TestOwner}
	again, err := newWithDependencies(s.ctx, s.app.Store, s.app.Clock, s.app.Random, nil, cfg, testutil.NopLogger())
	s.Require().NoError(err)
	again.Hub.Close()

	cfg.Owner = "someone-else"
	_, err = newWithDependencies(s.ctx, s.app.Store, s.app.Clock, s.app.Random, nil, cfg, testutil.NopLogger())
	s.ErrorIs(err, model.ErrOwnerAlreadySet)
}

func (s *IntegrationSuite) TestInvalidCredentialsConfig() {
	cfg := Config{Owner: TestOwner, Credentials: []string{"no-separator"}}
	_, err := newWithDependencies(s.ctx, s.app.Store, s.app.Clock, s.app.Random, nil, cfg, testutil.NopLogger())
	s.Error(err)
}

func TestNew_Memory(t *testing.T) {
	app, err := New(context.Background(), Config{Owner: "admin", Credentials: []string{"admin=pw"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = app.Close() }()

	owner, err := app.Ledger.Owner(context.Background())
	if err != nil || owner != "admin" {
		t.Fatalf("Owner() = %q, %v; want admin", owner, err)
	}
}

func TestNew_RedisPublishesEvents(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://" + mr.Addr()

	app, err := New(context.Background(), Config{
		Owner:        "admin",
		StorageType:  StorageTypeRedis,
		RedisConfig:  &cfg,
		EventChannel: "test:events",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = app.Close() }()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = sub.Close() }()
	pubsub := sub.Subscribe(context.Background(), "test:events")
	defer func() { _ = pubsub.Close() }()
	if _, err := pubsub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if _, err := app.Ledger.Award(context.Background(), "admin", "alice", 3, 0); err != nil {
		t.Fatalf("Award() error = %v", err)
	}

	select {
	case msg := <-pubsub.Channel():
		if msg.Channel != "test:events" {
			t.Errorf("message on %q, want test:events", msg.Channel)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestNew_InvalidStorageType(t *testing.T) {
	if _, err := New(context.Background(), Config{Owner: "admin", StorageType: "postgres"}); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
	if _, err := New(context.Background(), Config{Owner: "admin", StorageType: StorageTypeRedis}); err == nil {
		t.Fatal("expected error for redis without config")
	}
}

func TestNew_RequiresOwner(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without owner")
	}
}
