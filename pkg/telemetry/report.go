package telemetry

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/cmt.go/pkg/cmt"
)

// StatusReport is one telemetry sample of a board.
type StatusReport struct {
	Board          string        `protobuf:"bytes,1,opt,name=board,proto3" json:"board,omitempty" cbor:"1,keyasint,omitempty"`
	Seq            uint32        `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty" cbor:"2,keyasint,omitempty"`
	TimestampUs    uint64        `protobuf:"varint,3,opt,name=timestamp_us,json=timestampUs,proto3" json:"timestamp_us,omitempty" cbor:"3,keyasint,omitempty"`
	Cores          []*CoreStatus `protobuf:"bytes,4,rep,name=cores,proto3" json:"cores,omitempty" cbor:"4,keyasint,omitempty"`
	ScheduledSlots uint32        `protobuf:"varint,5,opt,name=scheduled_slots,json=scheduledSlots,proto3" json:"scheduled_slots,omitempty" cbor:"5,keyasint,omitempty"`
	ScheduledBusy  uint32        `protobuf:"varint,6,opt,name=scheduled_busy,json=scheduledBusy,proto3" json:"scheduled_busy,omitempty" cbor:"6,keyasint,omitempty"`
	ScheduledKinds []uint32      `protobuf:"varint,7,rep,packed,name=scheduled_kinds,json=scheduledKinds,proto3" json:"scheduled_kinds,omitempty" cbor:"7,keyasint,omitempty"`
	Ticks          uint32        `protobuf:"varint,8,opt,name=ticks,proto3" json:"ticks,omitempty" cbor:"8,keyasint,omitempty"`
}

// Reset implements proto.Message.
func (m *StatusReport) Reset() { *m = StatusReport{} }

// String implements proto.Message.
func (m *StatusReport) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*StatusReport) ProtoMessage() {}

// CoreStatus is the last completed second of statistics of one core.
type CoreStatus struct {
	Core        uint32 `protobuf:"varint,1,opt,name=core,proto3" json:"core,omitempty" cbor:"1,keyasint,omitempty"`
	Running     bool   `protobuf:"varint,2,opt,name=running,proto3" json:"running,omitempty" cbor:"2,keyasint,omitempty"`
	Retrieved   uint32 `protobuf:"varint,3,opt,name=retrieved,proto3" json:"retrieved,omitempty" cbor:"3,keyasint,omitempty"`
	Idle        uint32 `protobuf:"varint,4,opt,name=idle,proto3" json:"idle,omitempty" cbor:"4,keyasint,omitempty"`
	ActiveUs    uint64 `protobuf:"varint,5,opt,name=active_us,json=activeUs,proto3" json:"active_us,omitempty" cbor:"5,keyasint,omitempty"`
	IdleUs      uint64 `protobuf:"varint,6,opt,name=idle_us,json=idleUs,proto3" json:"idle_us,omitempty" cbor:"6,keyasint,omitempty"`
	LongestUs   uint64 `protobuf:"varint,7,opt,name=longest_us,json=longestUs,proto3" json:"longest_us,omitempty" cbor:"7,keyasint,omitempty"`
	LongestKind uint32 `protobuf:"varint,8,opt,name=longest_kind,json=longestKind,proto3" json:"longest_kind,omitempty" cbor:"8,keyasint,omitempty"`
	PostErrors  uint32 `protobuf:"varint,9,opt,name=post_errors,json=postErrors,proto3" json:"post_errors,omitempty" cbor:"9,keyasint,omitempty"`
	Interrupts  uint32 `protobuf:"varint,10,opt,name=interrupts,proto3" json:"interrupts,omitempty" cbor:"10,keyasint,omitempty"`
	TimestampUs uint64 `protobuf:"varint,11,opt,name=timestamp_us,json=timestampUs,proto3" json:"timestamp_us,omitempty" cbor:"11,keyasint,omitempty"`
	QueueHigh   uint32 `protobuf:"varint,12,opt,name=queue_high,json=queueHigh,proto3" json:"queue_high,omitempty" cbor:"12,keyasint,omitempty"`
	QueueNormal uint32 `protobuf:"varint,13,opt,name=queue_normal,json=queueNormal,proto3" json:"queue_normal,omitempty" cbor:"13,keyasint,omitempty"`
	QueueLow    uint32 `protobuf:"varint,14,opt,name=queue_low,json=queueLow,proto3" json:"queue_low,omitempty" cbor:"14,keyasint,omitempty"`
	// IdleTracked is false when the board doesn't measure idle time, so
	// IdleUs is meaningless.
	IdleTracked bool   `protobuf:"varint,15,opt,name=idle_tracked,json=idleTracked,proto3" json:"idle_tracked,omitempty" cbor:"15,keyasint,omitempty"`
}

// Reset implements proto.Message.
func (m *CoreStatus) Reset() { *m = CoreStatus{} }

// String implements proto.Message.
func (m *CoreStatus) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*CoreStatus) ProtoMessage() {}

// LongestKindName returns the name of the message kind of the longest
// handler.
func (m *CoreStatus) LongestKindName() string {
	return cmt.Kind(m.LongestKind).String()
}

// maxScheduledKinds bounds the scheduled kinds listed in a report.
const maxScheduledKinds = 32

// Sample builds a report from the current state of sys.
func Sample(sys *cmt.System, board string) *StatusReport {
	r := &StatusReport{
		Board:          board,
		TimestampUs:    sys.NowUS(),
		ScheduledSlots: uint32(sys.Config().ScheduledSlots),
		ScheduledBusy:  uint32(sys.ScheduledCount()),
		Ticks:          sys.TickSource().Count(),
	}
	for _, kind := range sys.ScheduledKinds(maxScheduledKinds) {
		r.ScheduledKinds = append(r.ScheduledKinds, uint32(kind))
	}
	idleTracked := sys.Config().Stats&cmt.StatsIdleTime != 0
	for n := 0; n < cmt.NumCores; n++ {
		core := sys.Core(cmt.CoreID(n))
		st, levels := core.Status(), core.QueueLevels()
		r.Cores = append(r.Cores, &CoreStatus{
			Core:        uint32(n),
			Running:     core.Running(),
			Retrieved:   st.Retrieved,
			Idle:        st.Idle,
			ActiveUs:    st.ActiveUS,
			IdleUs:      st.IdleUS,
			LongestUs:   st.LongestUS,
			LongestKind: uint32(st.LongestKind),
			PostErrors:  core.PostErrors(),
			Interrupts:  st.Interrupts,
			TimestampUs: st.TimestampUS,
			QueueHigh:   uint32(levels.High),
			QueueNormal: uint32(levels.Normal),
			QueueLow:    uint32(levels.Low),
			IdleTracked: idleTracked,
		})
	}
	return r
}

// Received is a report received by a monitor.
type Received struct {
	Board  string
	Report *StatusReport
	Err    error
}
