// Package notify holds transient, dismissible notifications shown after
// remote operations.
package notify

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the style of a notification.
type Kind string

const (
	Success Kind = "success"
	Danger  Kind = "danger"
)

// DefaultLimit caps how many undismissed notifications are kept.
const DefaultLimit = 20

// Notice is one notification.
type Notice struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Created time.Time `json:"created"`
}

// Center stores pending notifications. It is safe for concurrent use.
type Center struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
	limit   int
	notices []Notice
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
		limit:   DefaultLimit,
	}
}

// Notify records a notification and returns it. The oldest notice is
// dropped once the limit is reached.
func (c *Center) Notify(kind Kind, message string) Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := Notice{
		ID:      ulid.MustNew(ulid.Timestamp(now), c.entropy).String(),
		Kind:    kind,
		Message: message,
		Created: now,
	}
	c.notices = append(c.notices, n)
	if over := len(c.notices) - c.limit; over > 0 {
		c.notices = append([]Notice(nil), c.notices[over:]...)
	}
	return n
}

// Success records a success notification.
func (c *Center) Success(message string) Notice { return c.Notify(Success, message) }

// Danger records a failure notification.
func (c *Center) Danger(message string) Notice { return c.Notify(Danger, message) }

// Pending returns undismissed notifications, oldest first.
func (c *Center) Pending() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

// Dismiss removes the notification with id and reports whether it existed.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return true
		}
	}
	return false
}

// DismissAll clears every pending notification.
func (c *Center) DismissAll() {
	c.mu.Lock()
	c.notices = nil
	c.mu.Unlock()
}
