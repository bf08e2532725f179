package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SessionResult:
		o.printSession(v)
	case BalanceResult:
		o.printBalance(v)
	case PlayerScore:
		o.printPlayerScore(v)
	case LeaderboardResult:
		o.printLeaderboard(v)
	case LedgerResult:
		o.printLedger(v)
	case HistoryRecord:
		o.printHistoryRecord(v)
	case AwardResult:
		o.printAward(v)
	case ResetResult:
		o.printReset(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// SessionResult response type (matches API)
type SessionResult struct {
	Identity     string    `json:"identity"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// BalanceResult response type
type BalanceResult struct {
	Player  string `json:"player"`
	Balance uint64 `json:"balance"`
}

// PlayerScore response type
type PlayerScore struct {
	Player    string `json:"player"`
	Points    uint64 `json:"points"`
	GameID    uint32 `json:"game_id"`
	Timestamp uint64 `json:"timestamp"`
}

// LeaderboardResult response type
type LeaderboardResult struct {
	Limit   uint32        `json:"limit"`
	Entries []PlayerScore `json:"entries"`
}

// LedgerResult response type
type LedgerResult struct {
	Owner       string `json:"owner"`
	PlayerCount uint64 `json:"player_count"`
}

// HistoryRecord response type
type HistoryRecord struct {
	Player        string `json:"player"`
	PointsAwarded uint64 `json:"points_awarded"`
	GameID        uint32 `json:"game_id"`
	Timestamp     uint64 `json:"timestamp"`
}

// AwardResult response type
type AwardResult struct {
	Player  string `json:"player"`
	Awarded uint64 `json:"awarded"`
	GameID  uint32 `json:"game_id"`
	Balance uint64 `json:"balance"`
}

// ResetResult response type
type ResetResult struct {
	Player          string `json:"player"`
	PreviousBalance uint64 `json:"previous_balance"`
}

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	Server    string `json:"server,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

func (o *Output) printSession(s SessionResult) {
	fmt.Printf("Logged in as: %s\n", s.Identity)
	fmt.Printf("Token: %s\n", s.SessionToken)
	fmt.Printf("Expires: %s\n", s.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printBalance(b BalanceResult) {
	fmt.Printf("%s: %d points\n", b.Player, b.Balance)
}

func (o *Output) printPlayerScore(p PlayerScore) {
	fmt.Printf("Player: %s\n", p.Player)
	fmt.Printf("Points: %d\n", p.Points)
	fmt.Printf("Game: %d\n", p.GameID)
	fmt.Printf("As of: %s\n", formatUnix(p.Timestamp))
}

func (o *Output) printLeaderboard(l LeaderboardResult) {
	if len(l.Entries) == 0 {
		fmt.Println("Leaderboard is empty")
		return
	}
	fmt.Printf("Top %d:\n", l.Limit)
	for i, e := range l.Entries {
		fmt.Printf("  %d. %s - %d points\n", i+1, e.Player, e.Points)
	}
}

func (o *Output) printLedger(l LedgerResult) {
	fmt.Printf("Owner: %s\n", l.Owner)
	fmt.Printf("Players with points: %d\n", l.PlayerCount)
}

func (o *Output) printHistoryRecord(h HistoryRecord) {
	fmt.Printf("Player: %s\n", h.Player)
	fmt.Printf("Awarded: %d points\n", h.PointsAwarded)
	fmt.Printf("Game: %d\n", h.GameID)
	fmt.Printf("At: %s\n", formatUnix(h.Timestamp))
}

func (o *Output) printAward(a AwardResult) {
	fmt.Printf("Awarded %d points to %s (game %d)\n", a.Awarded, a.Player, a.GameID)
	fmt.Printf("New balance: %d\n", a.Balance)
}

func (o *Output) printReset(r ResetResult) {
	fmt.Printf("Reset %s (previous balance: %d)\n", r.Player, r.PreviousBalance)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Server: %s\n", h.Server)
	fmt.Printf("Status: %s (%dms)\n", h.Status, h.LatencyMS)
}

func formatUnix(ts uint64) string {
	if ts > uint64(1<<62) {
		return fmt.Sprintf("%d", ts)
	}
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
