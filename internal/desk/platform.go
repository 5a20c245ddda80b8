package desk

import (
	"fmt"
	"strings"
)

// Platform identifies the robot generation the Desk belongs to. The two
// generations expose slightly different REST paths and the legacy Panda
// has no control token concept at all.
type Platform string

const (
	// PlatformPanda is the legacy Franka Emika Robot (Panda).
	PlatformPanda Platform = "panda"
	// PlatformFR3 is the Franka Research 3.
	PlatformFR3 Platform = "fr3"
)

// ParsePlatform resolves the common spellings of the two platform names.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(s) {
	case "panda", "fer", "franka_emika_robot", "frankaemikarobot":
		return PlatformPanda, nil
	case "fr3", "frankaresearch3", "franka_research_3":
		return PlatformFR3, nil
	default:
		return "", fmt.Errorf("unknown platform %q: must be either 'panda' or 'fr3'", s)
	}
}

// legacy reports whether the platform predates token-based access control.
func (p Platform) legacy() bool {
	return p == PlatformPanda
}

// lockPath returns the brake-lock endpoint for the platform.
func (p Platform) lockPath() string {
	if p == PlatformPanda {
		return "/desk/api/robot/close-brakes"
	}
	return "/desk/api/joints/lock"
}

// unlockPath returns the brake-unlock endpoint for the platform.
func (p Platform) unlockPath() string {
	if p == PlatformPanda {
		return "/desk/api/robot/open-brakes"
	}
	return "/desk/api/joints/unlock"
}

// Mode is a Desk operating mode.
type Mode string

const (
	// ModeExecution allows running programs (and external control via FCI).
	ModeExecution Mode = "execution"
	// ModeProgramming allows hand-guiding and task editing.
	ModeProgramming Mode = "programming"
)

// path returns the mode-switch endpoint, or an error for unknown modes.
func (m Mode) path() (string, error) {
	switch m {
	case ModeExecution:
		return "/desk/api/operating-mode/execution", nil
	case ModeProgramming:
		return "/desk/api/operating-mode/programming", nil
	default:
		return "", fmt.Errorf("unknown mode %q", string(m))
	}
}
