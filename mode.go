package catalogsearch

import (
	"fmt"
	"time"

	"github.com/chozen2see/catalogsearch/internal/match"
)

// Mode selects which node fields a search matches.
type Mode string

const (
	// ModeDefault matches name, id and description.
	ModeDefault Mode = Mode(match.Default)
	// ModeDate matches the content of the first info entry.
	ModeDate Mode = Mode(match.Date)
	// ModeEvent matches the content of the second info entry.
	ModeEvent Mode = Mode(match.Event)
)

// DateLayout is the format of dates stored in the first info entry.
const DateLayout = time.DateOnly

// ParseMode parses a mode name. The empty string is ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDefault:
		return ModeDefault, nil
	case ModeDate, ModeEvent:
		return Mode(s), nil
	default:
		return ModeDefault, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m.normalize())
}

func (m Mode) normalize() Mode {
	return Mode(match.Normalize(match.Mode(m)))
}
