package tcpserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/swiftdrop/hub/core/ledger"
	"github.com/swiftdrop/hub/core/protocol"
)

// session owns one connection. The write path is serialized with a mutex so
// the dispatch loop, leaderboard and the session's own read loop can push
// records concurrently; the connection is closed exactly once.
type session struct {
	conn net.Conn
	wmu  sync.Mutex
	once sync.Once

	id   string
	role string
	name string
}

// Send writes one record. Implements registry.Sender.
func (s *session) Send(m protocol.Message) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := io.WriteString(s.conn, m.Encode())
	return err
}

func (s *session) close() {
	s.once.Do(func() { _ = s.conn.Close() })
}

// handleConn runs the read loop for one connection: handshake first, then
// record routing until EOF, a read error, or context cancellation.
func (srv *Server) handleConn(ctx context.Context, conn net.Conn) {
	sess := &session{conn: conn}
	defer sess.close()

	connID := uuid.NewString()
	log := srv.log
	log.Debugw("connection accepted", map[string]any{"conn_id": connID, "remote": conn.RemoteAddr().String()})

	scanner := bufio.NewScanner(conn)

	if !srv.handshake(sess, scanner, connID) {
		return
	}
	connectedSessions.WithLabelValues(sess.role).Inc()
	defer func() {
		connectedSessions.WithLabelValues(sess.role).Dec()
		srv.reg.Unregister(sess.id)
		log.Infof("session %s closed", sess.id)
	}()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		msg, err := protocol.Decode(scanner.Text())
		if err != nil {
			// Lenient parsing: log, drop the record, keep the session.
			log.Warnf("session %s: %v", sess.id, err)
			continue
		}
		srv.route(sess, msg)
	}
	if err := scanner.Err(); err != nil {
		log.Debugf("session %s read error: %v", sess.id, err)
	}
}

// handshake expects the first record to be HELLO and registers the session.
func (srv *Server) handshake(sess *session, scanner *bufio.Scanner, connID string) bool {
	if !scanner.Scan() {
		return false
	}
	msg, err := protocol.Decode(scanner.Text())
	if err != nil || msg.Tag != protocol.TagHello {
		_ = sess.Send(protocol.Errorf("expected HELLO"))
		return false
	}
	role, name := msg.Fields[0], msg.Fields[1]
	switch role {
	case protocol.RoleCourier:
		c := srv.reg.RegisterCourier(name, sess)
		sess.id = c.ID
	case protocol.RoleCustomer:
		sess.id = srv.reg.RegisterCustomer(name, sess)
	default:
		_ = sess.Send(protocol.Errorf("unknown role %q", role))
		return false
	}
	sess.role = role
	sess.name = name
	if err := sess.Send(protocol.Welcome(sess.id)); err != nil {
		srv.reg.Unregister(sess.id)
		return false
	}
	srv.log.Infof("session %s registered (conn %s)", sess.id, connID)
	return true
}

// route dispatches one inbound record to the owning component. Role
// mismatches and component errors come back as ERR records; none of them
// terminate the session.
func (srv *Server) route(sess *session, msg protocol.Message) {
	switch msg.Tag {
	case protocol.TagOrder:
		if sess.role != protocol.RoleCustomer {
			_ = sess.Send(protocol.Errorf("only customers submit orders"))
			return
		}
		address, rush, err := protocol.ParseOrder(msg)
		if err != nil {
			srv.log.Warnf("session %s: %v", sess.id, err)
			return
		}
		job := srv.led.NewJob(sess.id, address, rush, srv.reg.RandomPoint())
		// Ack before enqueueing so the customer never sees a status update
		// for a job it has not been told about.
		_ = sess.Send(protocol.OrderAck(job.ID, job.Items))
		srv.queue.Enqueue(job)

	case protocol.TagDelivered:
		if sess.role != protocol.RoleCourier {
			_ = sess.Send(protocol.Errorf("only couriers confirm deliveries"))
			return
		}
		jobID, err := protocol.ParseJobID(msg)
		if err != nil {
			srv.log.Warnf("session %s: %v", sess.id, err)
			return
		}
		if _, err := srv.led.Deliver(jobID, sess.id); err != nil {
			_ = sess.Send(protocol.Errorf("deliver %d: %s", jobID, errText(err)))
		}

	case protocol.TagSteal:
		if sess.role != protocol.RoleCourier {
			_ = sess.Send(protocol.Errorf("only couriers steal jobs"))
			return
		}
		jobID, err := protocol.ParseJobID(msg)
		if err != nil {
			srv.log.Warnf("session %s: %v", sess.id, err)
			return
		}
		if err := srv.led.AttemptSteal(jobID, sess.id); err != nil {
			_ = sess.Send(protocol.Errorf("steal %d: %s", jobID, errText(err)))
		}

	case protocol.TagPing:
		_ = sess.Send(protocol.Pong())

	default:
		// A known tag arriving in the wrong direction is a protocol
		// violation, handled the same lenient way as garbage.
		srv.log.Warnf("session %s sent unexpected %s", sess.id, msg.Tag)
	}
}

// errText maps ledger errors to the short wire phrasing.
func errText(err error) string {
	switch {
	case errors.Is(err, ledger.ErrJobNotFound):
		return "job not found"
	case errors.Is(err, ledger.ErrNotAssigned):
		return "job not currently assigned as expected"
	case errors.Is(err, ledger.ErrNotCloseEnough):
		return "not close enough"
	case errors.Is(err, ledger.ErrCourierUnavailable):
		return "courier unavailable"
	default:
		return err.Error()
	}
}
