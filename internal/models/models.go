package models

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderApproved  OrderStatus = "Approved"
	OrderInFlight  OrderStatus = "InFlight"
	OrderDelivered OrderStatus = "Delivered"
)

type Order struct {
	ID          string      `json:"id"`
	PackageType string      `json:"packageType"`
	Weight      string      `json:"weight"`
	Pickup      string      `json:"pickup"`
	Delivery    string      `json:"delivery"`
	Status      OrderStatus `json:"status"`
}

// OrderDraft holds the fields an order generator fills in; the engine
// assigns id and status.
type OrderDraft struct {
	PackageType string `json:"packageType"`
	Weight      string `json:"weight"`
	Pickup      string `json:"pickup"`
	Delivery    string `json:"delivery"`
}

type AircraftStatus string

const (
	AircraftIdle     AircraftStatus = "Idle"
	AircraftInFlight AircraftStatus = "InFlight"
	AircraftLanding  AircraftStatus = "Landing"
	AircraftCharging AircraftStatus = "Charging"
)

type AutonomyMode string

const (
	ModeManual   AutonomyMode = "Manual"
	ModeSemiAuto AutonomyMode = "Semi-Auto"
	ModeAuto     AutonomyMode = "Auto"
)

// AircraftState describes the single drone. Speed is the commanded ground
// speed in km/h and is zero while idle.
type AircraftState struct {
	Battery       float64        `json:"battery"`
	PayloadWeight float64        `json:"payloadWeight"`
	MaxPayload    float64        `json:"maxPayload"`
	Status        AircraftStatus `json:"status"`
	Mode          AutonomyMode   `json:"mode"`
	Signal        float64        `json:"signal"`
	Satellites    int            `json:"satellites"`
	CameraActive  bool           `json:"cameraActive"`
	Speed         float64        `json:"speed"`
}

// LngLat is a [longitude, latitude] pair, the order used on the wire by
// GeoJSON and the directions provider.
type LngLat [2]float64

func (p LngLat) Lng() float64 { return p[0] }
func (p LngLat) Lat() float64 { return p[1] }

type MissionPhase string

const (
	PhaseIdle      MissionPhase = "Idle"
	PhaseAcquiring MissionPhase = "Acquiring"
	PhaseRunning   MissionPhase = "Running"
	PhaseCompleted MissionPhase = "Completed"
)

// MissionState is the current or most recent mission run.
type MissionState struct {
	RunID         string   `json:"runId,omitempty"`
	Progress      float64  `json:"progress"`
	Elapsed       int      `json:"elapsed"`  // seconds
	ETA           float64  `json:"eta"`      // seconds
	Distance      float64  `json:"distance"` // km
	Altitude      float64  `json:"altitude"` // m
	Speed         float64  `json:"speed"`    // km/h
	RouteProgress float64  `json:"routeProgress"`
	Route         []LngLat `json:"route"`
	RouteSource   string   `json:"routeSource,omitempty"`
}

// Snapshot is the read-only view handed to consumers after every mutation.
type Snapshot struct {
	Orders               []Order       `json:"orders"`
	Aircraft             AircraftState `json:"aircraft"`
	Mission              MissionState  `json:"mission"`
	ActiveMissionOrderID string        `json:"activeMissionOrderId,omitempty"`
	Phase                MissionPhase  `json:"phase"`
	Position             *LngLat       `json:"position,omitempty"`
}

type Stats struct {
	Ticks              int64 `json:"ticks"`
	MissionsStarted    int64 `json:"missionsStarted"`
	MissionsCompleted  int64 `json:"missionsCompleted"`
	MissionsCancelled  int64 `json:"missionsCancelled"`
	RouteFallbacks     int64 `json:"routeFallbacks"`
	OrdersGenerated    int64 `json:"ordersGenerated"`
	GenerationFailures int64 `json:"generationFailures"`
}
