// internal/app/features/channel/handler.go
package channel

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/vidcollab/internal/app/features/errors"
	"github.com/dalemusser/vidcollab/internal/app/features/shared/api"
	"github.com/dalemusser/vidcollab/internal/app/services/youtube"
	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"github.com/dalemusser/vidcollab/internal/app/store/oauthstate"
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/auditlog"
	"github.com/dalemusser/vidcollab/internal/app/system/timeouts"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	stateCookie = "vidcollab_channel_state"
	stateTTL    = 10 * time.Minute
)

// Authorizer is the consent half of the YouTube client.
type Authorizer interface {
	Configured() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (models.Credentials, string, error)
}

// CredentialStore persists a creator's channel credentials.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, email string, cred models.Credentials) error
	MarkConnected(ctx context.Context, email string) error
	ClearCredentials(ctx context.Context, email string) error
}

// StateStore holds the one-time CSRF tokens of the connect flow.
type StateStore interface {
	Save(ctx context.Context, state, creatorEmail, returnURL string, expiresAt time.Time) error
	Consume(ctx context.Context, state string) (oauthstate.State, bool, error)
}

// Handler runs the YouTube channel connect flow.
type Handler struct {
	Auth        Authorizer
	Credentials CredentialStore
	States      StateStore
	Cookie      *securecookie.SecureCookie
	Audit       auditlog.Recorder
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger

	// Secure marks the state cookie HTTPS-only.
	Secure bool
}

// NewHandler builds a Handler. stateKey signs the browser-bound state cookie.
func NewHandler(auth Authorizer, creds CredentialStore, states StateStore, stateKey []byte,
	a auditlog.Recorder, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if a == nil {
		a = auditlog.Discard
	}
	sc := securecookie.New(stateKey, nil)
	sc.MaxAge(int(stateTTL / time.Second))
	return &Handler{
		Auth:        auth,
		Credentials: creds,
		States:      states,
		Cookie:      sc,
		Audit:       a,
		ErrLog:      errLog,
		Log:         logger,
	}
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// localPath accepts only same-site absolute paths as return targets.
func localPath(s string) bool {
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") && !strings.Contains(s, `\`)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/channel/connect?return=/dashboard                                   |
| Issues a state token and answers with the consent URL to send the browser to.|
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeConnect(w http.ResponseWriter, r *http.Request) {
	const op = "channel.Connect"
	creator := actor.Email(r.Context())

	if !h.Auth.Configured() {
		h.ErrLog.Write(w, r, apperr.External(op, "YouTube is not configured on this server", nil))
		return
	}
	returnURL := r.URL.Query().Get("return")
	if returnURL != "" && !localPath(returnURL) {
		h.ErrLog.Write(w, r, apperr.Validation(op, "return must be a local path"))
		return
	}

	state, err := newState()
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.States.Save(ctx, state, creator, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	encoded, err := h.Cookie.Encode(stateCookie, state)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    encoded,
		Path:     "/api/channel",
		MaxAge:   int(stateTTL / time.Second),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.Log.Debug("channel connect started", zap.String("creator", creator))
	api.OK(w, map[string]string{"auth_url": h.Auth.AuthCodeURL(state)})
}

// ServeCallback handles GET /api/channel/callback. The creator is identified
// by the state token, which must match the signed cookie set by ServeConnect.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	const op = "channel.Callback"
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		h.Log.Info("channel consent denied", zap.String("error", e))
		h.ErrLog.Write(w, r, apperr.Credential(op, "YouTube access was not granted"))
		return
	}
	state := q.Get("state")
	if state == "" {
		h.ErrLog.Write(w, r, apperr.Validation(op, "missing state"))
		return
	}
	c, err := r.Cookie(stateCookie)
	if err != nil {
		h.ErrLog.Write(w, r, apperr.Authorization(op, "connect was not started from this browser"))
		return
	}
	var bound string
	if err := h.Cookie.Decode(stateCookie, c.Value, &bound); err != nil || bound != state {
		h.ErrLog.Write(w, r, apperr.Authorization(op, "connect was not started from this browser"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/channel", MaxAge: -1})

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, valid, err := h.States.Consume(ctx, state)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if !valid {
		h.ErrLog.Write(w, r, apperr.Validation(op, "state is unknown or expired, start again"))
		return
	}
	code := q.Get("code")
	if code == "" {
		h.ErrLog.Write(w, r, apperr.Validation(op, "missing code"))
		return
	}

	cred, account, err := h.Auth.Exchange(ctx, code)
	if err != nil {
		h.Audit.Log(ctx, audit.Event{
			Category:      audit.CategoryChannel,
			EventType:     audit.EventChannelConnected,
			ActorEmail:    st.CreatorEmail,
			CreatorEmail:  st.CreatorEmail,
			Success:       false,
			FailureReason: err.Error(),
		})
		if errors.Is(err, youtube.ErrMissingScope) {
			h.ErrLog.Write(w, r, apperr.Credential(op, "YouTube upload permission is required"))
			return
		}
		h.ErrLog.Write(w, r, apperr.External(op, "could not complete the YouTube connection", err))
		return
	}
	if cred.RefreshToken == "" {
		h.ErrLog.Write(w, r, apperr.Credential(op, "YouTube did not return offline access, connect again"))
		return
	}

	if err := h.Credentials.SaveCredentials(ctx, st.CreatorEmail, cred); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.Credentials.MarkConnected(ctx, st.CreatorEmail); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.Audit.Log(ctx, audit.Event{
		Category:     audit.CategoryChannel,
		EventType:    audit.EventChannelConnected,
		ActorEmail:   st.CreatorEmail,
		CreatorEmail: st.CreatorEmail,
		Success:      true,
		Details:      map[string]string{"google_account": account},
	})
	h.Log.Info("channel connected",
		zap.String("creator", st.CreatorEmail),
		zap.String("google_account", account))

	if st.ReturnURL != "" {
		http.Redirect(w, r, st.ReturnURL, http.StatusSeeOther)
		return
	}
	api.OK(w, map[string]any{"connected": true, "google_account": account})
}

// ServeRevoke handles POST /api/channel/revoke.
func (h *Handler) ServeRevoke(w http.ResponseWriter, r *http.Request) {
	const op = "channel.Revoke"
	creator := actor.Email(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Credentials.ClearCredentials(ctx, creator); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFound(op, "no channel is connected")
		}
		h.ErrLog.Write(w, r, err)
		return
	}

	h.Audit.Log(ctx, audit.Event{
		Category:     audit.CategoryChannel,
		EventType:    audit.EventChannelRevoked,
		ActorEmail:   creator,
		CreatorEmail: creator,
		Success:      true,
	})
	w.WriteHeader(http.StatusNoContent)
}
