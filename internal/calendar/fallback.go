package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FallbackMeetingURL builds a placeholder meeting link for a session when the
// scheduling service cannot provision a real one. The booking still completes;
// support can tell these apart from real links by the path shape.
func FallbackMeetingURL(base string, at time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%s/%d-%s", strings.TrimRight(base, "/"), at.Unix(), token)
}
