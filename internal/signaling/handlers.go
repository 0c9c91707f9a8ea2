package signaling

import "signal-relay/internal/metrics"

// Presence-channel handlers.

func (c *Channel) handleAddUser(src Conn, msg Message) {
	if msg.UserID == "" {
		c.dropMissingField(src, msg.Type, "userId")
		return
	}

	c.bind(src, msg.UserID)
	c.log.Info("user registered",
		"channel", c.kind,
		"user", msg.UserID,
		"conn_id", src.ID(),
	)
	c.broadcaster.BroadcastAll()
}

func (c *Channel) handleChat(src Conn, msg Message) {
	if msg.ToUser == "" || msg.FromUser == "" || msg.Text == "" {
		c.dropMissingField(src, msg.Type, "toUser/fromUser/message")
		return
	}

	c.forward(msg.ToUser, Message{
		Type:     TypeChat,
		FromUser: msg.FromUser,
		Text:     msg.Text,
	})
}

func (c *Channel) handleCallRequest(src Conn, msg Message) {
	if msg.CallTo == "" || msg.CallFrom == "" {
		c.dropMissingField(src, msg.Type, "callTo/callFrom")
		return
	}

	c.forward(msg.CallTo, Message{
		Type:     TypeIncomingCall,
		CallFrom: msg.CallFrom,
		// Duplicated for clients that still read the old field name.
		Caller: msg.CallFrom,
	})
}

func (c *Channel) handleCallAccepted(src Conn, msg Message) {
	if msg.ToUser == "" || msg.FromUser == "" {
		c.dropMissingField(src, msg.Type, "toUser/fromUser")
		return
	}

	c.forward(msg.ToUser, Message{
		Type:     TypeCallAccepted,
		FromUser: msg.FromUser,
	})
}

func (c *Channel) handleCallRejected(src Conn, msg Message) {
	if msg.ToUser == "" || msg.FromUser == "" {
		c.dropMissingField(src, msg.Type, "toUser/fromUser")
		return
	}

	c.forward(msg.ToUser, Message{
		Type:     TypeCallRejected,
		FromUser: msg.FromUser,
	})
}

// Call-channel handlers. The opaque payload is forwarded byte-for-byte.

func (c *Channel) handleOffer(src Conn, msg Message) {
	if msg.ToUser == "" || msg.FromUser == "" || len(msg.Offer) == 0 {
		c.dropMissingField(src, msg.Type, "toUser/fromUser/offer")
		return
	}

	c.forward(msg.ToUser, Message{
		Type:     TypeOffer,
		FromUser: msg.FromUser,
		Offer:    msg.Offer,
	})
}

func (c *Channel) handleAnswer(src Conn, msg Message) {
	if msg.ToUser == "" || msg.FromUser == "" || len(msg.Answer) == 0 {
		c.dropMissingField(src, msg.Type, "toUser/fromUser/answer")
		return
	}

	c.forward(msg.ToUser, Message{
		Type:     TypeAnswer,
		FromUser: msg.FromUser,
		Answer:   msg.Answer,
	})
}

func (c *Channel) handleCandidate(src Conn, msg Message) {
	if msg.ToUser == "" || msg.FromUser == "" || len(msg.Candidate) == 0 {
		c.dropMissingField(src, msg.Type, "toUser/fromUser/candidate")
		return
	}

	c.forward(msg.ToUser, Message{
		Type:      TypeCandidate,
		FromUser:  msg.FromUser,
		Candidate: msg.Candidate,
	})
}

// handleEndCall notifies both parties, the sender included. The two sends are
// independent: failing to reach one never prevents the other.
func (c *Channel) handleEndCall(src Conn, msg Message) {
	if msg.ToUser == "" || msg.FromUser == "" {
		c.dropMissingField(src, msg.Type, "toUser/fromUser")
		return
	}

	out := Message{
		Type:     TypeEndCall,
		FromUser: msg.FromUser,
	}
	c.forward(msg.ToUser, out)
	c.forward(msg.FromUser, out)
}

// forward resolves toUser in this channel's registry and sends out on the
// recipient's connection. All failure modes are log-and-continue; the sender
// is never notified. A registered but closed connection is pruned here so the
// registry never keeps a known-dead entry past one routing attempt.
func (c *Channel) forward(toUser string, out Message) {
	conn, ok := c.reg.Get(toUser)
	if ok && !conn.IsOpen() {
		c.reg.RemoveConn(toUser, conn)
		ok = false
	}
	if !ok {
		c.metrics.Inc(metrics.RecipientUnreachable)
		c.log.Error("recipient unreachable",
			"channel", c.kind,
			"type", out.Type,
			"to_user", toUser,
		)
		return
	}

	data, err := Encode(out)
	if err != nil {
		c.log.Error("encoding outbound message failed",
			"channel", c.kind,
			"type", out.Type,
			"err", err,
		)
		return
	}

	if err := conn.Send(data); err != nil {
		c.metrics.Inc(metrics.SendFailure)
		c.log.Error("send failed",
			"channel", c.kind,
			"type", out.Type,
			"to_user", toUser,
			"err", err,
		)
		return
	}
	c.metrics.Inc(metrics.MessageForwarded)
}

func (c *Channel) dropMissingField(src Conn, msgType, fields string) {
	c.metrics.Inc(metrics.MissingField)
	c.log.Warn("dropping message with missing required fields",
		"channel", c.kind,
		"type", msgType,
		"required", fields,
		"conn_id", src.ID(),
	)
}
