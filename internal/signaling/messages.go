package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire message types. Presence-channel kinds first, then call-channel kinds.
const (
	TypeAddUser      = "addUser"
	TypeChat         = "chat"
	TypeCallRequest  = "callRequest"
	TypeIncomingCall = "incomingCall"
	TypeCallAccepted = "callAccepted"
	TypeCallRejected = "callRejected"
	TypeUserList     = "userList"

	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"
	TypeEndCall   = "endCall"
)

// Message is the flat JSON wire envelope shared by both channels. Type is the
// only mandatory field; which of the remaining fields a given kind requires is
// enforced by the routing handlers, not the codec.
//
// The offer/answer/candidate payloads are opaque to the relay and forwarded
// byte-for-byte, so they stay raw instead of being decoded into a shape.
type Message struct {
	Type string `json:"type"`

	UserID   string `json:"userId,omitempty"`
	FromUser string `json:"fromUser,omitempty"`
	ToUser   string `json:"toUser,omitempty"`
	Text     string `json:"message,omitempty"`

	// callRequest addresses its parties with legacy field names; Caller
	// duplicates CallFrom on outbound incomingCall messages for older clients.
	CallFrom string `json:"callFrom,omitempty"`
	CallTo   string `json:"callTo,omitempty"`
	Caller   string `json:"caller,omitempty"`

	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

var errMissingType = errors.New("missing type discriminator")

// Decode parses one inbound frame. It fails only on malformed JSON or a
// missing/empty type discriminator; no further schema validation happens here.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("malformed frame: %w", err)
	}
	if msg.Type == "" {
		return Message{}, errMissingType
	}
	return msg, nil
}

// Encode serializes an outbound message. Handlers only build messages from
// fields of already-decoded frames, so failures indicate a relay bug rather
// than bad client input.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// userListMessage is the presence broadcast. It has its own shape so an empty
// user set still serializes as "users":[].
type userListMessage struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}
