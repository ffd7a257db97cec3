package wiz

import (
	"errors"
	"fmt"
)

// Method is a protocol method name.
type Method string

const (
	MethodGetPilot        Method = "getPilot"
	MethodSetPilot        Method = "setPilot"
	MethodGetSystemConfig Method = "getSystemConfig"
	MethodGetModelConfig  Method = "getModelConfig"
	MethodGetPower        Method = "getPower"
)

// Request is the wire envelope of every request. Params is omitted entirely
// for parameterless methods.
type Request struct {
	Method Method       `json:"method"`
	Params *PilotParams `json:"params,omitempty"`
}

// NewGetPilotRequest returns a getPilot request.
func NewGetPilotRequest() Request {
	return Request{Method: MethodGetPilot}
}

// NewGetSystemConfigRequest returns a getSystemConfig request.
func NewGetSystemConfigRequest() Request {
	return Request{Method: MethodGetSystemConfig}
}

// NewGetModelConfigRequest returns a getModelConfig request.
func NewGetModelConfigRequest() Request {
	return Request{Method: MethodGetModelConfig}
}

// NewGetPowerRequest returns a getPower request.
func NewGetPowerRequest() Request {
	return Request{Method: MethodGetPower}
}

// NewSetPilotRequest returns a setPilot request carrying params.
func NewSetPilotRequest(params PilotParams) Request {
	return Request{Method: MethodSetPilot, Params: &params}
}

// PilotParams are the setPilot parameters. Only fields that are set are put
// on the wire; an unset field leaves the device's current value untouched.
type PilotParams struct {
	State   *bool  `json:"state,omitempty"`
	R       *uint8 `json:"r,omitempty"`
	G       *uint8 `json:"g,omitempty"`
	B       *uint8 `json:"b,omitempty"`
	C       *uint8 `json:"c,omitempty"`
	W       *uint8 `json:"w,omitempty"`
	Dimming *uint8 `json:"dimming,omitempty"`
}

// RGBCW is a five channel colour: red, green, blue, cool white, warm white.
type RGBCW struct {
	R, G, B, C, W uint8
}

// White is full output on every channel.
var White = RGBCW{R: 255, G: 255, B: 255, C: 255, W: 255}

func (c RGBCW) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d,%d)", c.R, c.G, c.B, c.C, c.W)
}

// PilotState is the result of getPilot.
type PilotState struct {
	MAC     string `json:"mac"`
	RSSI    int8   `json:"rssi"`
	State   bool   `json:"state"`
	SceneID int8   `json:"sceneId"`
	R       *uint8 `json:"r,omitempty"`
	G       *uint8 `json:"g,omitempty"`
	B       *uint8 `json:"b,omitempty"`
	C       *uint8 `json:"c,omitempty"`
	W       *uint8 `json:"w,omitempty"`
	Dimming uint8  `json:"dimming"`
}

func (p *PilotState) validate() error {
	if p.MAC == "" {
		return errors.New("missing mac")
	}
	return nil
}

// Color returns the reported colour when all five channels are present.
func (p *PilotState) Color() (RGBCW, bool) {
	if p.R == nil || p.G == nil || p.B == nil || p.C == nil || p.W == nil {
		return RGBCW{}, false
	}
	return RGBCW{R: *p.R, G: *p.G, B: *p.B, C: *p.C, W: *p.W}, true
}

// SignalStrength classifies the reported RSSI.
func (p *PilotState) SignalStrength() SignalStrength {
	return SignalStrengthFromRSSI(p.RSSI)
}

// SetPilotResult is the result of setPilot.
type SetPilotResult struct {
	Success *bool `json:"success"`
}

func (r *SetPilotResult) validate() error {
	if r.Success == nil {
		return errors.New("missing success")
	}
	return nil
}

// Succeeded reports whether the device accepted the request.
func (r *SetPilotResult) Succeeded() bool {
	return r.Success != nil && *r.Success
}

// SystemConfig is the result of getSystemConfig.
type SystemConfig struct {
	MAC             string `json:"mac"`
	HomeID          int    `json:"homeId"`
	RoomID          int    `json:"roomId"`
	Region          string `json:"rgn"`
	ModuleName      string `json:"moduleName"`
	FirmwareVersion string `json:"fwVersion"`
	GroupID         int    `json:"groupId"`
	Ping            int    `json:"ping"`
}

func (c *SystemConfig) validate() error {
	if c.MAC == "" {
		return errors.New("missing mac")
	}
	if c.ModuleName == "" {
		return errors.New("missing moduleName")
	}
	return nil
}

// ModelConfig is the result of getModelConfig. Only some firmware versions
// implement it.
type ModelConfig struct {
	PS           uint8     `json:"ps"`
	PWMFrequency uint16    `json:"pwmFreq"`
	PWMRange     [2]uint8  `json:"pwmRange"`
	WCR          uint8     `json:"wcr"`
	NoWC         uint8     `json:"nowc"`
	CCTRange     [4]uint16 `json:"cctRange"`
	RenderFactor [10]uint8 `json:"renderFactor"`
	DrvIface     *uint8    `json:"drvIface,omitempty"`
}

// Power is the result of getPower.
type Power struct {
	Power uint32 `json:"power"`
}
