package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/model"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository/repotest"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/config"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/events"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/jwtutil"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/mailer"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Dispatch(msg mailer.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
}

func (o *outbox) templates() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for _, m := range o.sent {
		out = append(out, m.Template)
	}
	return out
}

func (o *outbox) last() mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mailer.Message{}
	}
	return o.sent[len(o.sent)-1]
}

type notifications struct {
	mu  sync.Mutex
	got []events.Notification
}

func (n *notifications) Notify(_ context.Context, e events.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, e)
}

func (n *notifications) topics() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.got {
		out = append(out, e.Topic())
	}
	return out
}

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestJWT() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
}

func newAccountService(t *testing.T) (*AccountService, *repotest.Store, *outbox) {
	t.Helper()
	store := repotest.New()
	mail := &outbox{}
	svc := NewAccountService(store.Users, newTestJWT(), mail, AccountConfig{
		WebAppURL:       "http://web.test/",
		TwoFactorTTL:    15 * time.Minute,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, store, mail
}

func mustHash(t *testing.T, s string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func rep(id uint) *Caller {
	return &Caller{UserID: id, Username: "rep", Role: model.RoleRestaurantRep}
}

func reviewer(id uint) *Caller {
	return &Caller{UserID: id, Username: "critic", Role: model.RoleReviewer}
}

func admin() *Caller {
	return &Caller{UserID: 999, Username: "root", Role: model.RoleAdmin}
}
