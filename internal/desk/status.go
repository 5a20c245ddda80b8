package desk

import (
	"context"
	"encoding/json"
)

// Channel paths as the device exposes them. The leading-slash
// inconsistency is the device's own; openChannel normalizes it.
const (
	ChannelRobotState          = "/desk/api/robot/configuration"
	ChannelGeneralSystemStatus = "admin/api/system-status"
	ChannelSafetyStatus        = "admin/api/safety/status"
	ChannelSystemStatus        = "desk/api/system/status"
	ChannelButtonEvents        = "desk/api/navigation/events"
)

// Pilot button names as they appear in navigation events.
const (
	ButtonCircle = "circle"
	ButtonCheck  = "check"
	ButtonCross  = "cross"
	ButtonUp     = "up"
	ButtonDown   = "down"
	ButtonLeft   = "left"
	ButtonRight  = "right"
)

// Per-joint brake states.
const (
	BrakeLocked   = "Locked"
	BrakeUnlocked = "Unlocked"
)

// RobotState is one frame of the robot configuration channel: the
// end-effector pose as a 16-element column-major transform, estimated
// wrench and joint torques, and the seven joint angles.
type RobotState struct {
	CartesianPose    []float64 `json:"cartesianPose"`
	EstimatedForces  []float64 `json:"estimatedForces"`
	EstimatedTorques []float64 `json:"estimatedTorques"`
	JointAngles      []float64 `json:"jointAngles"`
}

// SafetyStatus is one frame of the safety controller channel. Sections
// the client never interprets are kept as raw JSON for pass-through.
type SafetyStatus struct {
	SequenceNumber               int64             `json:"sequenceNumber"`
	SafetyControllerStatus       string            `json:"safetyControllerStatus"`
	BrakeState                   []string          `json:"brakeState"`
	StoState                     string            `json:"stoState"`
	TimeToTd2                    int64             `json:"timeToTd2"`
	ActiveWarnings               map[string]bool   `json:"activeWarnings"`
	DemandedRecoveries           json.RawMessage   `json:"demandedRecoveries"`
	RecoverableErrors            map[string]bool   `json:"recoverableErrors"`
	ActiveRecovery               json.RawMessage   `json:"activeRecovery"`
	SafeInputState               map[string]string `json:"safeInputState"`
	PowerState                   map[string]string `json:"powerState"`
	SafetyControllerStatusReason json.RawMessage   `json:"safetyControllerStatusReason"`
	SafetyConfigurationIndex     int               `json:"safetyConfigurationIndex"`
	FsoeConnectionStatus         []string          `json:"fsoeConnectionStatus"`
}

// BrakesUnlocked reports whether every joint brake is unlocked.
func (s SafetyStatus) BrakesUnlocked() bool {
	return s.allBrakes(BrakeUnlocked)
}

// BrakesLocked reports whether every joint brake is locked.
func (s SafetyStatus) BrakesLocked() bool {
	return s.allBrakes(BrakeLocked)
}

func (s SafetyStatus) allBrakes(state string) bool {
	if len(s.BrakeState) == 0 {
		return false
	}
	for _, b := range s.BrakeState {
		if b != state {
			return false
		}
	}
	return true
}

// SystemStatus is one frame of the EtherCAT system status channel.
type SystemStatus struct {
	ConnectedSlaves            int       `json:"connectedSlaves"`
	EthernetConnected          bool      `json:"ethernetConnected"`
	FirmwareDownloadStatus     []string  `json:"firmwareDownloadStatus"`
	FirmwareVersion            []string  `json:"firmwareVersion"`
	JointStatus                []int     `json:"jointStatus"`
	JointsInError              bool      `json:"jointsInError"`
	LifetimeConfirmationNeeded bool      `json:"lifetimeConfirmationNeeded"`
	LifetimePercentages        []float64 `json:"lifetimePercentages"`
	MasterStatus               string    `json:"masterStatus"`
	SlavesOperational          bool      `json:"slavesOperational"`
	StartedWithEni             bool      `json:"startedWithEni"`
}

// GeneralSystemStatus is one frame of the aggregated system status
// channel. Only the safety section is decoded; the rest is opaque
// pass-through the caller can decode as needed.
type GeneralSystemStatus struct {
	Execution    json.RawMessage `json:"execution"`
	Safety       SafetyStatus    `json:"safety"`
	Robot        json.RawMessage `json:"robot"`
	Processes    json.RawMessage `json:"processes"`
	Startup      json.RawMessage `json:"startup"`
	ControlToken json.RawMessage `json:"controlToken"`
	Derived      json.RawMessage `json:"derived"`
}

// ButtonEvent is a sparse delta of Pilot button states: only buttons
// whose pressed state changed since the previous event are present.
type ButtonEvent map[string]bool

// RobotStates subscribes to the robot configuration channel.
func (c *Client) RobotStates(ctx context.Context) (*Stream[RobotState], error) {
	return subscribe[RobotState](ctx, c, ChannelRobotState)
}

// SafetyStatuses subscribes to the safety controller status channel.
func (c *Client) SafetyStatuses(ctx context.Context) (*Stream[SafetyStatus], error) {
	return subscribe[SafetyStatus](ctx, c, ChannelSafetyStatus)
}

// SystemStatuses subscribes to the EtherCAT system status channel.
func (c *Client) SystemStatuses(ctx context.Context) (*Stream[SystemStatus], error) {
	return subscribe[SystemStatus](ctx, c, ChannelSystemStatus)
}

// GeneralSystemStatuses subscribes to the aggregated system status channel.
func (c *Client) GeneralSystemStatuses(ctx context.Context) (*Stream[GeneralSystemStatus], error) {
	return subscribe[GeneralSystemStatus](ctx, c, ChannelGeneralSystemStatus)
}

// ButtonEvents subscribes to the Pilot navigation button channel.
func (c *Client) ButtonEvents(ctx context.Context) (*Stream[ButtonEvent], error) {
	return subscribe[ButtonEvent](ctx, c, ChannelButtonEvents)
}

// RawStatuses subscribes to any channel without decoding beyond JSON
// validity, for callers that want the frames verbatim.
func (c *Client) RawStatuses(ctx context.Context, channel string) (*Stream[json.RawMessage], error) {
	return subscribe[json.RawMessage](ctx, c, channel)
}
