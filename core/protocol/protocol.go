// Package protocol defines the newline-delimited text records exchanged on
// the hub's reliable channel and the location records sent on the broadcast
// channel. Records are UTF-8, fields separated by '|', first field a tag
// from a closed set. There is no length prefix or version field; changing
// field order or count requires updating every peer in lockstep.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/swiftdrop/hub/core/model"
)

// Delimiter separates fields inside a record.
const Delimiter = "|"

// Tag identifies the record type.
type Tag string

const (
	TagHello     Tag = "HELLO"
	TagWelcome   Tag = "WELCOME"
	TagOrder     Tag = "ORDER"
	TagOrderAck  Tag = "ORDER_ACK"
	TagAssign    Tag = "ASSIGN"
	TagStatus    Tag = "STATUS"
	TagDelivered Tag = "DELIVERED"
	TagSteal     Tag = "STEAL"
	TagBoard     Tag = "BOARD"
	TagPing      Tag = "PING"
	TagPong      Tag = "PONG"
	TagErr       Tag = "ERR"
	TagLocation  Tag = "LOC"
)

// Session roles declared in the handshake.
const (
	RoleCourier  = "courier"
	RoleCustomer = "customer"
)

// minFields maps each known tag to the number of fields it carries after the
// tag itself.
var minFields = map[Tag]int{
	TagHello:     2,
	TagWelcome:   1,
	TagOrder:     2,
	TagOrderAck:  2,
	TagAssign:    6,
	TagStatus:    3,
	TagDelivered: 1,
	TagSteal:     1,
	TagBoard:     1,
	TagPing:      0,
	TagPong:      0,
	TagErr:       1,
	TagLocation:  4,
}

// Message is one decoded record.
type Message struct {
	Tag    Tag
	Fields []string
}

// Encode renders the record including its trailing newline.
func (m Message) Encode() string {
	if len(m.Fields) == 0 {
		return string(m.Tag) + "\n"
	}
	return string(m.Tag) + Delimiter + strings.Join(m.Fields, Delimiter) + "\n"
}

// Decode parses a single line (without trailing newline). Unknown tags and
// short records yield an error; callers are expected to log and carry on.
func Decode(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Message{}, fmt.Errorf("protocol: empty record")
	}
	parts := strings.Split(line, Delimiter)
	tag := Tag(parts[0])
	want, ok := minFields[tag]
	if !ok {
		return Message{}, fmt.Errorf("protocol: unknown tag %q", parts[0])
	}
	fields := parts[1:]
	if len(fields) < want {
		return Message{}, fmt.Errorf("protocol: %s needs %d fields, got %d", tag, want, len(fields))
	}
	return Message{Tag: tag, Fields: fields}, nil
}

// Hello builds the handshake record declaring role and display name.
func Hello(role, name string) Message {
	return Message{Tag: TagHello, Fields: []string{role, name}}
}

// Welcome acknowledges a handshake with the generated session id.
func Welcome(sessionID string) Message {
	return Message{Tag: TagWelcome, Fields: []string{sessionID}}
}

// Order submits a delivery request.
func Order(address string, rush bool) Message {
	return Message{Tag: TagOrder, Fields: []string{address, strconv.FormatBool(rush)}}
}

// ParseOrder extracts the address and rush flag from an ORDER record.
func ParseOrder(m Message) (address string, rush bool, err error) {
	if m.Tag != TagOrder {
		return "", false, fmt.Errorf("protocol: not an ORDER record")
	}
	rush, err = strconv.ParseBool(m.Fields[1])
	if err != nil {
		return "", false, fmt.Errorf("protocol: bad rush flag: %w", err)
	}
	return m.Fields[0], rush, nil
}

// OrderAck confirms an accepted order back to the customer.
func OrderAck(jobID int64, items []string) Message {
	return Message{Tag: TagOrderAck, Fields: []string{
		strconv.FormatInt(jobID, 10), strings.Join(items, ","),
	}}
}

// Assign notifies a courier of a new job.
func Assign(job *model.Job, etaSeconds int, traffic bool) Message {
	return Message{Tag: TagAssign, Fields: []string{
		strconv.FormatInt(job.ID, 10),
		strings.Join(job.Items, ","),
		job.Address,
		strconv.Itoa(etaSeconds),
		strconv.FormatBool(traffic),
		strconv.FormatBool(job.Priority == model.PriorityRush),
	}}
}

// Assignment is the courier-side view of an ASSIGN record.
type Assignment struct {
	JobID      int64
	Items      []string
	Address    string
	ETASeconds int
	Traffic    bool
	Rush       bool
}

// ParseAssign decodes an ASSIGN record.
func ParseAssign(m Message) (Assignment, error) {
	if m.Tag != TagAssign {
		return Assignment{}, fmt.Errorf("protocol: not an ASSIGN record")
	}
	id, err := strconv.ParseInt(m.Fields[0], 10, 64)
	if err != nil {
		return Assignment{}, fmt.Errorf("protocol: bad job id: %w", err)
	}
	eta, err := strconv.Atoi(m.Fields[3])
	if err != nil {
		return Assignment{}, fmt.Errorf("protocol: bad eta: %w", err)
	}
	traffic, _ := strconv.ParseBool(m.Fields[4])
	rush, _ := strconv.ParseBool(m.Fields[5])
	return Assignment{
		JobID:      id,
		Items:      strings.Split(m.Fields[1], ","),
		Address:    m.Fields[2],
		ETASeconds: eta,
		Traffic:    traffic,
		Rush:       rush,
	}, nil
}

// Status reports a job state change to the customer or a cancellation to a
// courier.
func Status(jobID int64, status, detail string) Message {
	return Message{Tag: TagStatus, Fields: []string{
		strconv.FormatInt(jobID, 10), status, detail,
	}}
}

// Delivered is a courier's confirmation that a job has been handed over.
func Delivered(jobID int64) Message {
	return Message{Tag: TagDelivered, Fields: []string{strconv.FormatInt(jobID, 10)}}
}

// Steal asks the hub to reassign an in-flight job to the sender.
func Steal(jobID int64) Message {
	return Message{Tag: TagSteal, Fields: []string{strconv.FormatInt(jobID, 10)}}
}

// ParseJobID reads the job id field of DELIVERED and STEAL records.
func ParseJobID(m Message) (int64, error) {
	if m.Tag != TagDelivered && m.Tag != TagSteal {
		return 0, fmt.Errorf("protocol: %s carries no job id", m.Tag)
	}
	id, err := strconv.ParseInt(m.Fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("protocol: bad job id: %w", err)
	}
	return id, nil
}

// BoardEntry is one row of a leaderboard snapshot.
type BoardEntry struct {
	Name         string
	Completed    int
	Satisfaction float64
}

// Board builds a leaderboard snapshot record. Entries are encoded as
// name:completed:avg joined by commas inside a single field.
func Board(entries []BoardEntry) Message {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s:%d:%.1f", e.Name, e.Completed, e.Satisfaction)
	}
	return Message{Tag: TagBoard, Fields: []string{strings.Join(parts, ",")}}
}

// Ping is the keepalive probe; Pong is its reply.
func Ping() Message { return Message{Tag: TagPing} }

// Pong replies to a Ping.
func Pong() Message { return Message{Tag: TagPong} }

// Errorf builds a generic error record.
func Errorf(format string, args ...any) Message {
	return Message{Tag: TagErr, Fields: []string{fmt.Sprintf(format, args...)}}
}

// Location renders a broadcast-channel location record.
func Location(s model.LocationSample) Message {
	return Message{Tag: TagLocation, Fields: []string{
		s.CourierID,
		strconv.FormatFloat(s.Position.Lat, 'f', 6, 64),
		strconv.FormatFloat(s.Position.Lon, 'f', 6, 64),
		strconv.FormatInt(s.At.UnixMilli(), 10),
	}}
}

// ParseLocation decodes a broadcast-channel location record.
func ParseLocation(m Message) (model.LocationSample, error) {
	if m.Tag != TagLocation {
		return model.LocationSample{}, fmt.Errorf("protocol: not a LOC record")
	}
	lat, err := strconv.ParseFloat(m.Fields[1], 64)
	if err != nil {
		return model.LocationSample{}, fmt.Errorf("protocol: bad latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(m.Fields[2], 64)
	if err != nil {
		return model.LocationSample{}, fmt.Errorf("protocol: bad longitude: %w", err)
	}
	ms, err := strconv.ParseInt(m.Fields[3], 10, 64)
	if err != nil {
		return model.LocationSample{}, fmt.Errorf("protocol: bad timestamp: %w", err)
	}
	return model.LocationSample{
		CourierID: m.Fields[0],
		Position:  model.Coordinates{Lat: lat, Lon: lon},
		At:        time.UnixMilli(ms),
	}, nil
}
