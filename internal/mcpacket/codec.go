package mcpacket

import (
	"encoding/json"
	"fmt"
	"io"

	"mcwire/internal/nbt"
	"mcwire/internal/wire"
)

// Each registered packet owns one decode function (io.Reader, payload
// length in bytes past the packet id) and/or one encode function
// (io.Writer). Payload length is only consulted by decoders whose last
// field has no explicit length prefix (PluginMessageServerbound).

func decodeHandshake(r io.Reader, _ int) (Packet, error) {
	proto, _, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	addr, _, err := wire.ReadString(r)
	if err != nil {
		return nil, err
	}
	port, err := wire.ReadUint16(r)
	if err != nil {
		return nil, err
	}
	next, _, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if next != 1 && next != 2 {
		return nil, wire.ErrInvalidData
	}
	return Handshake{ProtocolVersion: proto, Addr: addr, Port: port, Next: next}, nil
}

// encodeHandshake is only used by a probe establishing a connection; a
// server never sends a Handshake, only decodes one.
func encodeHandshake(w io.Writer, p Packet) error {
	hs := p.(Handshake)
	if err := wire.WriteVarInt(w, hs.ProtocolVersion); err != nil {
		return err
	}
	if err := wire.WriteString(w, hs.Addr); err != nil {
		return err
	}
	if err := wire.WriteUint16(w, hs.Port); err != nil {
		return err
	}
	return wire.WriteVarInt(w, hs.Next)
}

func decodeStatusRequest(io.Reader, int) (Packet, error) {
	return StatusRequest{}, nil
}

func encodeStatusRequest(io.Writer, Packet) error {
	return nil
}

func encodeStatusResponse(w io.Writer, p Packet) error {
	resp := p.(StatusResponse)
	doc := struct {
		Version struct {
			Name     string `json:"name"`
			Protocol int32  `json:"protocol"`
		} `json:"version"`
		Players struct {
			Max    int32 `json:"max"`
			Online int32 `json:"online"`
			Sample []struct {
				Name string `json:"name"`
				ID   int64  `json:"id"`
			} `json:"sample"`
		} `json:"players"`
		Description struct {
			Text string `json:"text"`
		} `json:"description"`
	}{}
	doc.Version.Name = resp.ProtocolName
	doc.Version.Protocol = resp.ProtocolVersion
	doc.Players.Max = resp.MaxPlayers
	doc.Players.Online = resp.OnlinePlayers
	doc.Players.Sample = make([]struct {
		Name string `json:"name"`
		ID   int64  `json:"id"`
	}, len(resp.Sample))
	for i, s := range resp.Sample {
		doc.Players.Sample[i].Name = s.Name
		doc.Players.Sample[i].ID = s.UUID
	}
	doc.Description.Text = resp.Description

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("mcpacket: marshal status response: %w", err)
	}
	return wire.WriteString(w, string(body))
}

// decodeStatusResponse is only used by a probe reading the server's
// reply; a server itself never decodes its own outgoing packet type.
func decodeStatusResponse(r io.Reader, _ int) (Packet, error) {
	body, _, err := wire.ReadString(r)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Version struct {
			Name     string `json:"name"`
			Protocol int32  `json:"protocol"`
		} `json:"version"`
		Players struct {
			Max    int32 `json:"max"`
			Online int32 `json:"online"`
			Sample []struct {
				Name string `json:"name"`
				ID   int64  `json:"id"`
			} `json:"sample"`
		} `json:"players"`
		Description struct {
			Text string `json:"text"`
		} `json:"description"`
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("mcpacket: unmarshal status response: %w", err)
	}
	sample := make([]StatusSampleEntry, len(doc.Players.Sample))
	for i, s := range doc.Players.Sample {
		sample[i] = StatusSampleEntry{Name: s.Name, UUID: s.ID}
	}
	return StatusResponse{
		ProtocolName:    doc.Version.Name,
		ProtocolVersion: doc.Version.Protocol,
		MaxPlayers:      doc.Players.Max,
		OnlinePlayers:   doc.Players.Online,
		Sample:          sample,
		Description:     doc.Description.Text,
	}, nil
}

func decodeStatusPing(r io.Reader, _ int) (Packet, error) {
	nonce, err := wire.ReadInt64(r)
	if err != nil {
		return nil, err
	}
	return StatusPing{Nonce: nonce}, nil
}

// encodeStatusPing is only used by a probe.
func encodeStatusPing(w io.Writer, p Packet) error {
	return wire.WriteInt64(w, p.(StatusPing).Nonce)
}

func encodeStatusPong(w io.Writer, p Packet) error {
	return wire.WriteInt64(w, p.(StatusPong).Nonce)
}

func decodeStatusPong(r io.Reader, _ int) (Packet, error) {
	nonce, err := wire.ReadInt64(r)
	if err != nil {
		return nil, err
	}
	return StatusPong{Nonce: nonce}, nil
}

func decodeLoginStart(r io.Reader, _ int) (Packet, error) {
	name, _, err := wire.ReadString(r)
	if err != nil {
		return nil, err
	}
	return LoginStart{Username: name}, nil
}

// encodeLoginStart is only used by a probe.
func encodeLoginStart(w io.Writer, p Packet) error {
	return wire.WriteString(w, p.(LoginStart).Username)
}

func encodeLoginSuccess(w io.Writer, p Packet) error {
	ls := p.(LoginSuccess)
	if err := wire.WriteUint128(w, ls.UUIDHi, ls.UUIDLo); err != nil {
		return err
	}
	return wire.WriteString(w, ls.Username)
}

func decodeLoginSuccess(r io.Reader, _ int) (Packet, error) {
	hi, lo, err := wire.ReadUint128(r)
	if err != nil {
		return nil, err
	}
	name, _, err := wire.ReadString(r)
	if err != nil {
		return nil, err
	}
	return LoginSuccess{UUIDHi: hi, UUIDLo: lo, Username: name}, nil
}

func encodeLoginCompression(w io.Writer, p Packet) error {
	return wire.WriteVarInt(w, p.(LoginCompression).Threshold)
}

func decodeLoginCompression(r io.Reader, _ int) (Packet, error) {
	threshold, _, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return LoginCompression{Threshold: threshold}, nil
}

func encodeJoinGame(w io.Writer, p Packet) error {
	jg := p.(JoinGame)
	if err := wire.WriteInt32(w, jg.EntityID); err != nil {
		return err
	}
	if err := wire.WriteBool(w, jg.Hardcore); err != nil {
		return err
	}
	if err := wire.WriteUint8(w, jg.Gamemode); err != nil {
		return err
	}
	if err := wire.WriteInt8(w, jg.PrevGamemode); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, int32(len(jg.Worlds))); err != nil {
		return err
	}
	for _, world := range jg.Worlds {
		if err := wire.WriteString(w, world); err != nil {
			return err
		}
	}
	if err := nbt.Encode(w, "", jg.DimensionCodec.toWire()); err != nil {
		return err
	}
	if err := nbt.Encode(w, "", jg.Dimension); err != nil {
		return err
	}
	if err := wire.WriteString(w, jg.WorldName); err != nil {
		return err
	}
	if err := wire.WriteInt64(w, jg.HashedSeed); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, jg.MaxPlayers); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, jg.ViewDistance); err != nil {
		return err
	}
	if err := wire.WriteBool(w, jg.ReducedDebug); err != nil {
		return err
	}
	if err := wire.WriteBool(w, jg.RespawnScreen); err != nil {
		return err
	}
	if err := wire.WriteBool(w, jg.IsDebug); err != nil {
		return err
	}
	return wire.WriteBool(w, jg.IsFlat)
}

// decodeJoinGame is only used by a probe. It reads every scalar field but
// skips over the dimension codec and dimension NBT compounds structurally
// rather than rebuilding them — a probe has no use for the registry
// contents, only for the scalar join parameters around them.
func decodeJoinGame(r io.Reader, _ int) (Packet, error) {
	var jg JoinGame
	var err error
	if jg.EntityID, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if jg.Hardcore, err = wire.ReadBool(r); err != nil {
		return nil, err
	}
	if jg.Gamemode, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if jg.PrevGamemode, err = wire.ReadInt8(r); err != nil {
		return nil, err
	}
	worldCount, _, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	jg.Worlds = make([]string, worldCount)
	for i := range jg.Worlds {
		if jg.Worlds[i], _, err = wire.ReadString(r); err != nil {
			return nil, err
		}
	}
	if err := nbt.Skip(r); err != nil { // dimension_codec
		return nil, err
	}
	if err := nbt.Skip(r); err != nil { // dimension
		return nil, err
	}
	if jg.WorldName, _, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if jg.HashedSeed, err = wire.ReadInt64(r); err != nil {
		return nil, err
	}
	if jg.MaxPlayers, _, err = wire.ReadVarInt(r); err != nil {
		return nil, err
	}
	if jg.ViewDistance, _, err = wire.ReadVarInt(r); err != nil {
		return nil, err
	}
	if jg.ReducedDebug, err = wire.ReadBool(r); err != nil {
		return nil, err
	}
	if jg.RespawnScreen, err = wire.ReadBool(r); err != nil {
		return nil, err
	}
	if jg.IsDebug, err = wire.ReadBool(r); err != nil {
		return nil, err
	}
	if jg.IsFlat, err = wire.ReadBool(r); err != nil {
		return nil, err
	}
	return jg, nil
}

func encodePlayerPositionAndLookS2C(w io.Writer, p Packet) error {
	pp := p.(PlayerPositionAndLookS2C)
	if err := wire.WriteFloat64(w, pp.X); err != nil {
		return err
	}
	if err := wire.WriteFloat64(w, pp.Y); err != nil {
		return err
	}
	if err := wire.WriteFloat64(w, pp.Z); err != nil {
		return err
	}
	if err := wire.WriteFloat32(w, pp.Yaw); err != nil {
		return err
	}
	if err := wire.WriteFloat32(w, pp.Pitch); err != nil {
		return err
	}
	if err := wire.WriteInt8(w, pp.Flags); err != nil {
		return err
	}
	return wire.WriteVarInt(w, pp.TeleportID)
}

func decodePlayerPositionAndLookS2C(r io.Reader, _ int) (Packet, error) {
	var pp PlayerPositionAndLookS2C
	var err error
	if pp.X, err = wire.ReadFloat64(r); err != nil {
		return nil, err
	}
	if pp.Y, err = wire.ReadFloat64(r); err != nil {
		return nil, err
	}
	if pp.Z, err = wire.ReadFloat64(r); err != nil {
		return nil, err
	}
	if pp.Yaw, err = wire.ReadFloat32(r); err != nil {
		return nil, err
	}
	if pp.Pitch, err = wire.ReadFloat32(r); err != nil {
		return nil, err
	}
	if pp.Flags, err = wire.ReadInt8(r); err != nil {
		return nil, err
	}
	if pp.TeleportID, _, err = wire.ReadVarInt(r); err != nil {
		return nil, err
	}
	return pp, nil
}

func decodeTeleportConfirm(r io.Reader, _ int) (Packet, error) {
	id, _, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return TeleportConfirm{TeleportID: id}, nil
}

// encodeTeleportConfirm is only used by a probe.
func encodeTeleportConfirm(w io.Writer, p Packet) error {
	return wire.WriteVarInt(w, p.(TeleportConfirm).TeleportID)
}

func decodeClientSettings(r io.Reader, _ int) (Packet, error) {
	locale, _, err := wire.ReadString(r)
	if err != nil {
		return nil, err
	}
	viewDistance, err := wire.ReadInt8(r)
	if err != nil {
		return nil, err
	}
	chatMode, _, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	chatColors, err := wire.ReadBool(r)
	if err != nil {
		return nil, err
	}
	skinMask, err := wire.ReadUint8(r)
	if err != nil {
		return nil, err
	}
	mainHand, _, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return ClientSettings{
		Locale:       locale,
		ViewDistance: viewDistance,
		ChatMode:     chatMode,
		ChatColors:   chatColors,
		SkinMask:     skinMask,
		MainHand:     mainHand,
	}, nil
}

// encodeClientSettings is only used by a probe.
func encodeClientSettings(w io.Writer, p Packet) error {
	cs := p.(ClientSettings)
	if err := wire.WriteString(w, cs.Locale); err != nil {
		return err
	}
	if err := wire.WriteInt8(w, cs.ViewDistance); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, cs.ChatMode); err != nil {
		return err
	}
	if err := wire.WriteBool(w, cs.ChatColors); err != nil {
		return err
	}
	if err := wire.WriteUint8(w, cs.SkinMask); err != nil {
		return err
	}
	return wire.WriteVarInt(w, cs.MainHand)
}

func decodePluginMessageServerbound(r io.Reader, payloadLen int) (Packet, error) {
	channel, n, err := wire.ReadString(r)
	if err != nil {
		return nil, err
	}
	remaining := payloadLen - n
	if remaining < 0 {
		return nil, wire.ErrInvalidData
	}
	data := make([]byte, remaining)
	if remaining > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, io.ErrUnexpectedEOF
		}
	}
	return PluginMessageServerbound{Channel: channel, Data: data}, nil
}

// encodePluginMessageServerbound is only used by a probe. Data is written
// raw with no length prefix — the frame's own size prefix is the boundary,
// matching how decodePluginMessageServerbound treats it as the remainder
// of the payload.
func encodePluginMessageServerbound(w io.Writer, p Packet) error {
	pm := p.(PluginMessageServerbound)
	if err := wire.WriteString(w, pm.Channel); err != nil {
		return err
	}
	_, err := w.Write(pm.Data)
	return err
}

func decodePlayerPositionAndRotationServerbound(r io.Reader, _ int) (Packet, error) {
	x, err := wire.ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	feetY, err := wire.ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	z, err := wire.ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	yaw, err := wire.ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	pitch, err := wire.ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	grounded, err := wire.ReadBool(r)
	if err != nil {
		return nil, err
	}
	return PlayerPositionAndRotationServerbound{
		X: x, FeetY: feetY, Z: z, Yaw: yaw, Pitch: pitch, Grounded: grounded,
	}, nil
}

// encodePlayerPositionAndRotationServerbound is only used by a probe.
func encodePlayerPositionAndRotationServerbound(w io.Writer, p Packet) error {
	pp := p.(PlayerPositionAndRotationServerbound)
	if err := wire.WriteFloat64(w, pp.X); err != nil {
		return err
	}
	if err := wire.WriteFloat64(w, pp.FeetY); err != nil {
		return err
	}
	if err := wire.WriteFloat64(w, pp.Z); err != nil {
		return err
	}
	if err := wire.WriteFloat32(w, pp.Yaw); err != nil {
		return err
	}
	if err := wire.WriteFloat32(w, pp.Pitch); err != nil {
		return err
	}
	return wire.WriteBool(w, pp.Grounded)
}
