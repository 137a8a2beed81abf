package mcpacket

// Handshake is the single packet a connection ever receives in the
// Handshake state. Its Next field drives the only state transition that
// isn't statically fixed by the registry table: Status (1) or Login (2).
type Handshake struct {
	ProtocolVersion int32
	Addr            string
	Port            uint16
	Next            int32
}

func (Handshake) State() State { return StateHandshake }
func (Handshake) Bound() Bound { return BoundServer }
func (Handshake) ID() int32    { return 0 }

func (h Handshake) NextState() (State, bool) {
	switch h.Next {
	case 1:
		return StateStatus, true
	case 2:
		return StateLogin, true
	default:
		return StateHandshake, false
	}
}

// StatusRequest carries no payload; its arrival alone triggers a
// StatusResponse.
type StatusRequest struct{}

func (StatusRequest) State() State { return StateStatus }
func (StatusRequest) Bound() Bound { return BoundServer }
func (StatusRequest) ID() int32    { return 0 }

// StatusResponse is the JSON status document clients render in the
// server list.
type StatusResponse struct {
	ProtocolName    string
	ProtocolVersion int32
	MaxPlayers      int32
	OnlinePlayers   int32
	Sample          []StatusSampleEntry
	Description     string
}

type StatusSampleEntry struct {
	Name string
	UUID int64
}

func (StatusResponse) State() State { return StateStatus }
func (StatusResponse) Bound() Bound { return BoundClient }
func (StatusResponse) ID() int32    { return 0 }

// StatusPing/StatusPong are the latency probe: the server echoes the
// nonce it's given.
type StatusPing struct {
	Nonce int64
}

func (StatusPing) State() State { return StateStatus }
func (StatusPing) Bound() Bound { return BoundServer }
func (StatusPing) ID() int32    { return 1 }

type StatusPong struct {
	Nonce int64
}

func (StatusPong) State() State { return StateStatus }
func (StatusPong) Bound() Bound { return BoundClient }
func (StatusPong) ID() int32    { return 1 }

// LoginStart begins the login flow; its username is the only identity the
// server has for the connecting player.
type LoginStart struct {
	Username string
}

func (LoginStart) State() State { return StateLogin }
func (LoginStart) Bound() Bound { return BoundServer }
func (LoginStart) ID() int32    { return 0 }

// LoginSuccess completes login and, by protocol convention, moves the
// connection into Play as soon as it is sent.
type LoginSuccess struct {
	UUIDHi   uint64
	UUIDLo   uint64
	Username string
}

func (LoginSuccess) State() State { return StateLogin }
func (LoginSuccess) Bound() Bound { return BoundClient }
func (LoginSuccess) ID() int32    { return 2 }
func (LoginSuccess) NextState() (State, bool) {
	return StatePlay, true
}

// LoginCompression is emittable but never constructed by the handler
// table: compression itself is out of scope (spec.md's Non-goals), so the
// type exists purely so the registry's shape is complete.
type LoginCompression struct {
	Threshold int32
}

func (LoginCompression) State() State { return StateLogin }
func (LoginCompression) Bound() Bound { return BoundClient }
func (LoginCompression) ID() int32    { return 3 }

// JoinGame is the first Play packet a client receives; it carries the
// NBT dimension codec and the client's own dimension entry.
type JoinGame struct {
	EntityID        int32
	Hardcore        bool
	Gamemode        uint8
	PrevGamemode    int8
	Worlds          []string
	DimensionCodec  DimensionCodec
	Dimension       Dimension
	WorldName       string
	HashedSeed      int64
	MaxPlayers      int32
	ViewDistance    int32
	ReducedDebug    bool
	RespawnScreen   bool
	IsDebug         bool
	IsFlat          bool
}

func (JoinGame) State() State { return StatePlay }
func (JoinGame) Bound() Bound { return BoundClient }
func (JoinGame) ID() int32    { return 36 }

// PlayerPositionAndLookS2C teleports the client and must be acknowledged
// by a TeleportConfirm carrying the same teleport_id.
type PlayerPositionAndLookS2C struct {
	X, Y, Z      float64
	Yaw, Pitch   float32
	Flags        int8
	TeleportID   int32
}

func (PlayerPositionAndLookS2C) State() State { return StatePlay }
func (PlayerPositionAndLookS2C) Bound() Bound { return BoundClient }
func (PlayerPositionAndLookS2C) ID() int32    { return 52 }

// TeleportConfirm closes the loop on PlayerPositionAndLookS2C.
type TeleportConfirm struct {
	TeleportID int32
}

func (TeleportConfirm) State() State { return StatePlay }
func (TeleportConfirm) Bound() Bound { return BoundServer }
func (TeleportConfirm) ID() int32    { return 0 }

// ClientSettings announces the client's locale/view-distance/chat
// preferences; the handler table only acknowledges it.
type ClientSettings struct {
	Locale       string
	ViewDistance int8
	ChatMode     int32
	ChatColors   bool
	SkinMask     uint8
	MainHand     int32
}

func (ClientSettings) State() State { return StatePlay }
func (ClientSettings) Bound() Bound { return BoundServer }
func (ClientSettings) ID() int32    { return 5 }

// PluginMessageServerbound is the one packet whose decoder needs the
// outer payload length: its trailing byte slice has no length prefix of
// its own.
type PluginMessageServerbound struct {
	Channel string
	Data    []byte
}

func (PluginMessageServerbound) State() State { return StatePlay }
func (PluginMessageServerbound) Bound() Bound { return BoundServer }
func (PluginMessageServerbound) ID() int32    { return 11 }

// PlayerPositionAndRotationServerbound is the client's regular movement
// update.
type PlayerPositionAndRotationServerbound struct {
	X, FeetY, Z float64
	Yaw, Pitch  float32
	Grounded    bool
}

func (PlayerPositionAndRotationServerbound) State() State { return StatePlay }
func (PlayerPositionAndRotationServerbound) Bound() Bound { return BoundServer }
func (PlayerPositionAndRotationServerbound) ID() int32    { return 19 }
