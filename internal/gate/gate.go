package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/encounter"
	"github.com/telecare/session-server/internal/media"
	"github.com/telecare/session-server/internal/rtc"
	"github.com/telecare/session-server/internal/session"
)

// Admission is the result of a granted join request.
type Admission struct {
	Token *rtc.Token      `json:"token"`
	Media *media.JoinInfo `json:"media,omitempty"`
}

// Gate is the admission policy for encounter rooms. Given a join request it
// consults the externally owned encounter state, checks participation and
// lifecycle joinability, and only then issues an admission token.
type Gate struct {
	dir      encounter.Directory
	admin    encounter.AdminChecker
	tokens   *rtc.Service
	reg      *session.Registry
	engine   media.Engine // nil when no media backend is configured
	tokenTTL time.Duration
	log      *zerolog.Logger
}

// New creates an admission gate.
func New(dir encounter.Directory, admin encounter.AdminChecker, tokens *rtc.Service, reg *session.Registry, tokenTTL time.Duration, logger *zerolog.Logger) *Gate {
	return &Gate{
		dir:      dir,
		admin:    admin,
		tokens:   tokens,
		reg:      reg,
		tokenTTL: tokenTTL,
		log:      logger,
	}
}

// WithMediaEngine attaches a media backend whose join credentials are
// returned alongside the admission token.
func (g *Gate) WithMediaEngine(engine media.Engine) *Gate {
	g.engine = engine
	return g
}

// Admit evaluates a join request for (subject, role, encounter). The caller
// identity is always an explicit parameter; nothing is read from ambient
// state. Denials are classified Errors, never connection faults.
func (g *Gate) Admit(ctx context.Context, subjectID int64, role string, encounterID int64) (*Admission, error) {
	enc, err := g.dir.LookupEncounter(ctx, encounterID)
	if err != nil {
		if errors.Is(err, encounter.ErrNotFound) {
			return nil, ErrEncounterNotFound
		}
		return nil, fmt.Errorf("lookup encounter: %w", err)
	}

	if !enc.Participant(subjectID) {
		isAdmin, err := g.admin.IsAdministrator(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("check administrator: %w", err)
		}
		if !isAdmin {
			g.log.Debug().Int64("subject_id", subjectID).Int64("encounter_id", encounterID).Msg("admission denied: not a participant")
			return nil, ErrNotParticipant
		}
	}

	if !enc.Stage.Joinable() {
		g.log.Debug().Int64("encounter_id", encounterID).Str("stage", string(enc.Stage)).Msg("admission denied: stage not joinable")
		return nil, ErrNotJoinable
	}

	token, err := g.tokens.Issue(encounterID, subjectID, role, g.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue admission token: %w", err)
	}

	adm := &Admission{Token: token}
	if g.engine != nil {
		joinInfo, err := g.engine.GenerateJoinInfo(ctx, token.RoomID, subjectID, fmt.Sprintf("subject-%d", subjectID))
		if err != nil {
			return nil, fmt.Errorf("generate media join info: %w", err)
		}
		adm.Media = joinInfo
	}

	g.log.Info().Int64("subject_id", subjectID).Int64("encounter_id", encounterID).Str("room_id", token.RoomID).Msg("admission token issued")
	return adm, nil
}

// RunSweep periodically logs the online count and evicts connections whose
// last activity exceeds idleTimeout. Eviction unregisters the subject, which
// cascades into room purges. Blocks until the context is canceled.
func (g *Gate) RunSweep(ctx context.Context, interval, idleTimeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep(idleTimeout)
		}
	}
}

func (g *Gate) sweep(idleTimeout time.Duration) {
	g.log.Debug().Int("online", g.reg.Count()).Msg("liveness sweep")

	cutoff := time.Now().Add(-idleTimeout)
	var stale []*session.Client
	g.reg.Range(func(c *session.Client) bool {
		if c.LastActive().Before(cutoff) {
			stale = append(stale, c)
		}
		return true
	})

	for _, c := range stale {
		g.log.Info().Int64("subject_id", c.SubjectID).Str("conn_id", c.ConnID).Msg("evicting idle connection")
		g.reg.UnregisterClient(c)
	}
}
