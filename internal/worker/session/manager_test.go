package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ManagerSuite is a test suite for Manager operations.
type ManagerSuite struct {
	suite.Suite
	manager *Manager
	clock   *fakeClock
}

func (s *ManagerSuite) SetupTest() {
	s.clock = newFakeClock()
	s.manager = NewManager(WithClock(s.clock.Now))
}

func (s *ManagerSuite) TearDownTest() {
	s.manager.Stop()
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func scam(t models.ScamType, confidence float64, signals ...string) *models.Classification {
	return &models.Classification{IsScam: true, ScamType: t, Confidence: confidence, Signals: signals}
}

func notScam() *models.Classification {
	c := models.DefaultClassification()
	return &c
}

// TestGetOrCreate tests lazy creation of empty sessions.
func (s *ManagerSuite) TestGetOrCreate() {
	var created []string
	s.manager.SetOnSessionCreated(func(id string) {
		created = append(created, id)
	})

	sess := s.manager.GetOrCreate("abc")
	s.Equal("abc", sess.ID)
	s.Equal(0, sess.TotalTurns)
	s.False(sess.ScamConfirmed)
	s.False(sess.ReportSent)
	s.True(sess.Intelligence.IsEmpty())
	s.Equal(s.clock.Now(), sess.CreatedAt)
	s.Equal(models.SessionStateNew, sess.State())

	again := s.manager.GetOrCreate("abc")
	s.Equal(sess.CreatedAt, again.CreatedAt)
	s.Equal([]string{"abc"}, created)
	s.Equal(1, s.manager.GetActiveSessionCount())
}

// TestGetDoesNotCreate tests read-only lookup.
func (s *ManagerSuite) TestGetDoesNotCreate() {
	_, ok := s.manager.Get("missing")
	s.False(ok)
	s.Equal(0, s.manager.GetActiveSessionCount())

	s.manager.GetOrCreate("present")
	sess, ok := s.manager.Get("present")
	s.True(ok)
	s.Equal("present", sess.ID)
}

// TestSnapshotsAreIndependent tests that callers cannot mutate stored state.
func (s *ManagerSuite) TestSnapshotsAreIndependent() {
	s.manager.Update("x", Update{Intelligence: models.Intelligence{PhoneNumbers: []string{"9876543210"}}})

	snap, _ := s.manager.Get("x")
	snap.Intelligence.PhoneNumbers[0] = "tampered"
	snap.TotalTurns = 99

	fresh, _ := s.manager.Get("x")
	s.Equal([]string{"+919876543210"}, fresh.Intelligence.PhoneNumbers)
	s.Equal(1, fresh.TotalTurns)
}

// TestUpdateCountsTurns tests turn counting and timestamps.
func (s *ManagerSuite) TestUpdateCountsTurns() {
	s.manager.GetOrCreate("t")
	for i := 1; i <= 3; i++ {
		s.clock.Advance(10 * time.Second)
		res := s.manager.Update("t", Update{})
		s.Equal(i, res.Session.TotalTurns)
		s.Equal(s.clock.Now(), res.Session.LastUpdated)
		s.False(res.Session.LastUpdated.Before(res.Session.CreatedAt))
	}
	sess, _ := s.manager.Get("t")
	s.Equal(30*time.Second, sess.Duration())
	s.Equal(models.SessionStateUnconfirmed, sess.State())
}

// TestUpdateMergesIntelligence tests that merges normalize and deduplicate.
func (s *ManagerSuite) TestUpdateMergesIntelligence() {
	u := Update{Intelligence: models.Intelligence{
		PhoneNumbers:  []string{"9876543210", "+919876543210", "91 9876543210"},
		PhishingLinks: []string{"HTTPS://Bit.ly/abc123."},
		UPIIDs:        []string{"ramesh.kumar52@okaxis", "  "},
	}}

	first := s.manager.Update("m", u)
	s.Equal(3, first.Added)
	s.Equal([]string{"+919876543210"}, first.Discovered.PhoneNumbers)
	s.Equal([]string{"https://bit.ly/abc123"}, first.Discovered.PhishingLinks)
	s.Equal([]string{"+919876543210"}, first.Session.Intelligence.PhoneNumbers)
	s.Equal([]string{"https://bit.ly/abc123"}, first.Session.Intelligence.PhishingLinks)
	s.Equal([]string{"ramesh.kumar52@okaxis"}, first.Session.Intelligence.UPIIDs)

	second := s.manager.Update("m", u)
	s.Equal(0, second.Added)
	s.True(second.Discovered.IsEmpty())
	s.Equal(first.Session.Intelligence, second.Session.Intelligence)
}

// TestConfirmationIsMonotonic tests that a later non-scam verdict never clears confirmation.
func (s *ManagerSuite) TestConfirmationIsMonotonic() {
	res := s.manager.Update("c", Update{Classification: notScam()})
	s.False(res.Session.ScamConfirmed)
	s.False(res.Confirmed)

	res = s.manager.Update("c", Update{Classification: scam(models.ScamTypeBankFraud, 0.9, "otp_request")})
	s.True(res.Session.ScamConfirmed)
	s.True(res.Confirmed)
	s.Equal(models.SessionStateConfirmed, res.Session.State())

	for i := 0; i < 5; i++ {
		res = s.manager.Update("c", Update{Classification: notScam()})
		s.True(res.Session.ScamConfirmed)
		s.False(res.Confirmed)
	}

	// a failed classifier leaves the flag alone as well
	res = s.manager.Update("c", Update{})
	s.True(res.Session.ScamConfirmed)
}

// TestScamTypeRefinement tests that only higher-confidence verdicts change the scam type.
func (s *ManagerSuite) TestScamTypeRefinement() {
	res := s.manager.Update("r", Update{Classification: &models.Classification{
		ScamType: models.ScamTypePhishing, Confidence: 0.4,
	}})
	s.Empty(res.Session.ScamType, "type is not set before confirmation")

	res = s.manager.Update("r", Update{Classification: scam(models.ScamTypeBankFraud, 0.7)})
	s.Equal(models.ScamTypeBankFraud, res.Session.ScamType)

	res = s.manager.Update("r", Update{Classification: scam(models.ScamTypeUPIFraud, 0.6)})
	s.Equal(models.ScamTypeBankFraud, res.Session.ScamType)

	res = s.manager.Update("r", Update{Classification: scam(models.ScamTypeUnknown, 0.99)})
	s.Equal(models.ScamTypeBankFraud, res.Session.ScamType)

	res = s.manager.Update("r", Update{Classification: scam(models.ScamTypeUPIFraud, 0.95)})
	s.Equal(models.ScamTypeUPIFraud, res.Session.ScamType)
	s.InDelta(0.95, res.Session.ScamTypeConfidence, 1e-9)
}

// TestSignalsBecomeTacticsAndKeywords tests signal bookkeeping.
func (s *ManagerSuite) TestSignalsBecomeTacticsAndKeywords() {
	s.manager.Update("k", Update{Classification: scam(models.ScamTypeBankFraud, 0.9, "otp_request", "urgency")})
	res := s.manager.Update("k", Update{Classification: scam(models.ScamTypeBankFraud, 0.9, "urgency", "account_threat")})

	s.Equal([]string{"otp_request", "urgency", "account_threat"}, res.Session.Tactics)
	s.Equal([]string{"otp_request", "urgency", "account_threat"}, res.Session.Intelligence.SuspiciousKeywords)
}

// TestUpdateRecreatesSweptSession tests updates racing with the sweep.
func (s *ManagerSuite) TestUpdateRecreatesSweptSession() {
	s.manager.GetOrCreate("gone")
	s.clock.Advance(2 * time.Hour)
	s.Equal(1, s.manager.Sweep(time.Hour))

	res := s.manager.Update("gone", Update{})
	s.Equal(1, res.Session.TotalTurns)
	s.Equal(s.clock.Now(), res.Session.CreatedAt)
}

// TestClaimReport tests the at-most-once report claim.
func (s *ManagerSuite) TestClaimReport() {
	_, ok := s.manager.ClaimReport("unknown", nil)
	s.False(ok)

	s.manager.Update("r", Update{Classification: scam(models.ScamTypeBankFraud, 0.9)})

	notReady := func(sess models.Session) bool { return sess.TotalTurns >= 2 }
	_, ok = s.manager.ClaimReport("r", notReady)
	s.False(ok)

	s.manager.Update("r", Update{})
	snap, ok := s.manager.ClaimReport("r", notReady)
	s.True(ok)
	s.True(snap.ReportAttempted)
	s.False(snap.ReportSent)

	_, ok = s.manager.ClaimReport("r", notReady)
	s.False(ok, "second claim must fail")

	s.True(s.manager.MarkReported("r"))
	s.False(s.manager.MarkReported("r"))
	s.False(s.manager.MarkReported("unknown"))

	sess, _ := s.manager.Get("r")
	s.True(sess.ReportSent)
	s.Equal(models.SessionStateReported, sess.State())
}

// TestSweep tests idle eviction.
func (s *ManagerSuite) TestSweep() {
	var deleted []string
	s.manager.SetOnSessionDeleted(func(id string) {
		deleted = append(deleted, id)
	})

	s.manager.GetOrCreate("old")
	s.clock.Advance(50 * time.Minute)
	s.manager.GetOrCreate("young")
	s.clock.Advance(20 * time.Minute)

	s.Equal(1, s.manager.Sweep(time.Hour))
	s.Equal([]string{"old"}, deleted)

	_, ok := s.manager.Get("old")
	s.False(ok)
	_, ok = s.manager.Get("young")
	s.True(ok)

	// a swept session comes back fresh
	fresh := s.manager.GetOrCreate("old")
	s.Equal(0, fresh.TotalTurns)
}

// TestGetAllSessions tests snapshot listing order.
func (s *ManagerSuite) TestGetAllSessions() {
	s.Empty(s.manager.GetAllSessions())

	s.manager.GetOrCreate("a")
	s.clock.Advance(time.Second)
	s.manager.GetOrCreate("b")
	s.clock.Advance(time.Second)
	s.manager.Update("a", Update{})

	sessions := s.manager.GetAllSessions()
	s.Require().Len(sessions, 2)
	s.Equal("a", sessions[0].ID)
	s.Equal("b", sessions[1].ID)
}

// TestDeleteSession tests session deletion.
func (s *ManagerSuite) TestDeleteSession() {
	s.manager.GetOrCreate("d")

	var deletedID string
	s.manager.SetOnSessionDeleted(func(id string) {
		deletedID = id
	})

	s.manager.DeleteSession("d")
	s.Equal(0, s.manager.GetActiveSessionCount())
	s.Equal("d", deletedID)

	// Double delete should be safe and silent
	deletedID = ""
	s.manager.DeleteSession("d")
	s.Empty(deletedID)
}

// TestShutdownAll tests dropping all sessions on shutdown.
func (s *ManagerSuite) TestShutdownAll() {
	for i := 0; i < 3; i++ {
		s.manager.GetOrCreate(fmt.Sprintf("s-%d", i))
	}
	var deleted int
	s.manager.SetOnSessionDeleted(func(string) { deleted++ })

	s.manager.Start()
	s.manager.ShutdownAll(context.Background())

	s.Equal(0, s.manager.GetActiveSessionCount())
	s.Equal(3, deleted)
}

// TestTimeoutConstants tests timeout constants.
func TestTimeoutConstants(t *testing.T) {
	assert.Equal(t, time.Hour, SessionTimeout)
	assert.Equal(t, 5*time.Minute, CleanupInterval)
}

// TestConcurrentUpdatesSameSession tests that concurrent turns never lose updates.
func TestConcurrentUpdatesSameSession(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			manager.Update("shared", Update{
				Intelligence: models.Intelligence{BankAccounts: []string{fmt.Sprintf("1234567890%02d", i)}},
			})
			_ = manager.GetAllSessions()
			_ = manager.GetActiveSessionCount()
		}(i)
	}
	wg.Wait()

	sess, ok := manager.Get("shared")
	require.True(t, ok)
	assert.Equal(t, workers, sess.TotalTurns)
	assert.Len(t, sess.Intelligence.BankAccounts, workers)
}

// TestConcurrentClaimReport tests that exactly one concurrent claimant wins.
func TestConcurrentClaimReport(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()
	manager.Update("race", Update{Classification: scam(models.ScamTypeBankFraud, 0.9)})

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := manager.ClaimReport("race", nil); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

// TestCleanupLoop tests that the background sweep evicts idle sessions and stops cleanly.
func TestCleanupLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	manager := NewManager(
		WithIdleTimeout(20*time.Millisecond),
		WithCleanupInterval(5*time.Millisecond),
	)
	manager.GetOrCreate("idle")
	manager.Start()
	manager.Start()

	assert.Eventually(t, func() bool {
		return manager.GetActiveSessionCount() == 0
	}, 2*time.Second, 5*time.Millisecond)

	manager.Stop()
}
