package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/gamepoints/internal/api/middleware"
	"github.com/mcoot/gamepoints/internal/api/request"
	"github.com/mcoot/gamepoints/internal/api/response"
	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/services/ledger"
)

// DefaultLeaderboardLimit is used when the request does not give one
const DefaultLeaderboardLimit uint32 = 10

// LedgerHandler handles ledger endpoints
type LedgerHandler struct {
	ledger *ledger.Service
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledgerService,
	}
}

// Get handles GET /api/v1/ledger
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, err := h.ledger.Owner(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	count, err := h.ledger.PlayerCount(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Ledger{
		Owner:       owner.String(),
		PlayerCount: count,
	})
}

// Balance handles GET /api/v1/players/{player}/balance
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	player := playerFromPath(r)

	balance, err := h.ledger.Balance(r.Context(), player)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Balance{
		Player:  player.String(),
		Balance: balance,
	})
}

// Info handles GET /api/v1/players/{player}
func (h *LedgerHandler) Info(w http.ResponseWriter, r *http.Request) {
	score, err := h.ledger.PlayerInfo(r.Context(), playerFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerScoreFromModel(score))
}

// History handles GET /api/v1/players/{player}/history/{timestamp}/{game_id}
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	timestamp, err := strconv.ParseUint(vars["timestamp"], 10, 64)
	if err != nil {
		WriteError(w, NewInvalidRequestError("timestamp must be an unsigned integer"))
		return
	}
	gameID, err := strconv.ParseUint(vars["game_id"], 10, 32)
	if err != nil {
		WriteError(w, NewInvalidRequestError("game_id must be an unsigned 32-bit integer"))
		return
	}

	record, err := h.ledger.Record(r.Context(), playerFromPath(r), timestamp, uint32(gameID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HistoryRecordFromModel(record))
}

// Leaderboard handles GET /api/v1/leaderboard?limit=N
func (h *LedgerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			WriteError(w, NewInvalidRequestError("limit must be an unsigned 32-bit integer"))
			return
		}
		limit = uint32(parsed)
	}

	scores, err := h.ledger.Leaderboard(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(limit, scores))
}

// Award handles POST /api/v1/players/{player}/awards
func (h *LedgerHandler) Award(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetCaller(r.Context())
	player := playerFromPath(r)

	var req request.AwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rejectAward(w, r, caller, NewInvalidRequestError("invalid request body"))
		return
	}

	points, err := parsePoints(req.Points)
	if err != nil {
		h.rejectAward(w, r, caller, err)
		return
	}

	balance, err := h.ledger.Award(r.Context(), caller, player, points, req.GameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Award{
		Player:  player.String(),
		Awarded: points,
		GameID:  req.GameID,
		Balance: balance,
	})
}

// Reset handles POST /api/v1/players/{player}/reset
func (h *LedgerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetCaller(r.Context())
	player := playerFromPath(r)

	old, err := h.ledger.Reset(r.Context(), caller, player)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Reset{
		Player:          player.String(),
		PreviousBalance: old,
	})
}

// rejectAward reports a malformed award. The ledger checks the caller before
// the amount, so a non-owner gets the gate's error here too.
func (h *LedgerHandler) rejectAward(w http.ResponseWriter, r *http.Request, caller model.Identity, invalid error) {
	if err := h.ledger.RequireOwner(r.Context(), caller); err != nil {
		WriteError(w, err)
		return
	}
	WriteError(w, invalid)
}

func playerFromPath(r *http.Request) model.Identity {
	return model.Identity(mux.Vars(r)["player"])
}

// parsePoints accepts a non-negative integer that fits in 64 bits.
// Zero and negative values map to the ledger's invalid amount error.
func parsePoints(n json.Number) (uint64, error) {
	raw := n.String()
	if raw == "" {
		return 0, NewInvalidRequestError("points is required")
	}
	if strings.HasPrefix(raw, "-") {
		return 0, model.ErrInvalidAmount
	}

	points, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, NewInvalidRequestError("points exceeds the maximum balance")
		}
		return 0, NewInvalidRequestError("points must be an integer")
	}
	return points, nil
}
