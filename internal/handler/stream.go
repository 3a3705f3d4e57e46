package handler

import (
	"io"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/live"
	"github.com/muhfadtz/TrackFinance/internal/logger"

	"github.com/gin-gonic/gin"
)

const streamKeepAlive = 25 * time.Second

// Stream pushes the dashboard as server-sent events. Every ledger, profile
// or session change produces a "view" event; revoking the session sends
// "signed_out" and ends the stream.
func (h *DashboardHandler) Stream(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	days, ok := h.window(c)
	if !ok {
		return
	}
	var sessionID string
	if s := currentSession(c); s != nil {
		sessionID = s.ID
	}

	prof, err := h.Profiles.Ensure(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.Log, "load settings", err)
		return
	}

	sess := live.NewSession(h.Store, user.ID, sessionID, live.Options{
		WindowDays: days,
		Location:   requestLocation(c, h.Location),
		Profile:    *prof,
		Now:        h.Now,
	}, h.Log)
	events, err := sess.Run(c.Request.Context())
	if err != nil {
		writeError(c, h.Log, "open stream", err)
		return
	}

	log := h.Log.With(logger.FieldUserID, user.ID)
	log.DebugContext(c.Request.Context(), "stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			switch ev.Kind {
			case live.EventSignedOut:
				c.SSEvent(string(live.EventSignedOut), gin.H{})
				log.InfoContext(c.Request.Context(), "stream ended by sign-out")
				return false
			default:
				v := ev.View
				c.SSEvent(string(live.EventView), gin.H{
					"view":      v,
					"formatted": h.formatted(v.Summary, &v.Profile),
				})
			}
			return true
		case <-keepAlive.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	log.DebugContext(c.Request.Context(), "stream closed")
}
