// Package events decodes pump program events from transaction logs and
// streams them from a websocket logs subscription.
package events

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/ninja0404/pump-bundler/pkg/program/pump"
)

// Kind names an event variant.
type Kind string

const (
	KindCreate    Kind = "create"
	KindTrade     Kind = "trade"
	KindComplete  Kind = "complete"
	KindSetParams Kind = "set_params"
)

// Event is one of CreateEvent, TradeEvent, CompleteEvent or SetParamsEvent.
type Event interface {
	Kind() Kind
	event()
}

type CreateEvent struct{ pump.CreateEvent }

type TradeEvent struct{ pump.TradeEvent }

type CompleteEvent struct{ pump.CompleteEvent }

type SetParamsEvent struct{ pump.SetParamsEvent }

func (CreateEvent) Kind() Kind    { return KindCreate }
func (TradeEvent) Kind() Kind     { return KindTrade }
func (CompleteEvent) Kind() Kind  { return KindComplete }
func (SetParamsEvent) Kind() Kind { return KindSetParams }

func (CreateEvent) event()    {}
func (TradeEvent) event()     {}
func (CompleteEvent) event()  {}
func (SetParamsEvent) event() {}

// ErrUnknownEvent is returned by Decode for data with an unrecognized
// discriminator.
var ErrUnknownEvent = errors.New("unknown event discriminator")

// Decode decodes discriminator-prefixed event data.
func Decode(data []byte) (Event, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("event data too short: %d bytes", len(data))
	}
	disc := data[:8]
	switch {
	case bytes.Equal(disc, pump.CreateEventDiscriminator):
		var e CreateEvent
		if err := e.Unmarshal(data); err != nil {
			return nil, err
		}
		return e, nil
	case bytes.Equal(disc, pump.TradeEventDiscriminator):
		var e TradeEvent
		if err := e.Unmarshal(data); err != nil {
			return nil, err
		}
		return e, nil
	case bytes.Equal(disc, pump.CompleteEventDiscriminator):
		var e CompleteEvent
		if err := e.Unmarshal(data); err != nil {
			return nil, err
		}
		return e, nil
	case bytes.Equal(disc, pump.SetParamsEventDiscriminator):
		var e SetParamsEvent
		if err := e.Unmarshal(data); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, ErrUnknownEvent
}

const programDataPrefix = "Program data: "

// ParseLogs decodes every pump event emitted in logs. Lines that are not
// program data, or carry another program's events, are skipped.
func ParseLogs(logs []string) []Event {
	var out []Event
	for _, line := range logs {
		payload, ok := strings.CutPrefix(line, programDataPrefix)
		if !ok {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			continue
		}
		ev, err := Decode(data)
		if err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out
}
