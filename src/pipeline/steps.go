package pipeline

// Kind names one of the step forms a pipeline document may contain.
type Kind string

// The set of step kinds is closed: the wire format gives each kind its own
// leading key and a fixed serialization shape.
const (
	KindCommand Kind = "command"
	KindTrigger Kind = "trigger"
	KindWait    Kind = "wait"
	KindBlock   Kind = "block"
	KindInput   Kind = "input"
	KindSkip    Kind = "skip"
)

// Step is one entry in a pipeline's step sequence. The six step types in
// this package are the only implementations; the interface is sealed so a
// definition can never hold a step of an unknown kind.
type Step interface {
	Kind() Kind
	step()
}

// CommandStep runs shell commands on a build agent.
type CommandStep struct {
	Commands []string // executed in order by the agent
	Label    string   // optional display label, emoji allowed
}

func (*CommandStep) Kind() Kind { return KindCommand }
func (*CommandStep) step()      {}

// TriggerStep starts a run of another pipeline.
type TriggerStep struct {
	Pipeline string // slug of the pipeline to trigger
}

func (*TriggerStep) Kind() Kind { return KindTrigger }
func (*TriggerStep) step()      {}

// WaitStep holds later steps back until every earlier step has finished.
type WaitStep struct {
	ContinueOnFailure bool // proceed past the barrier even after a failure
}

func (*WaitStep) Kind() Kind { return KindWait }
func (*WaitStep) step()      {}

// BlockStep pauses the pipeline until a person unblocks it.
type BlockStep struct {
	Prompt string // text shown on the unblock button
}

func (*BlockStep) Kind() Kind { return KindBlock }
func (*BlockStep) step()      {}

// InputStep collects input from a person before later steps run.
type InputStep struct {
	Prompt string
}

func (*InputStep) Kind() Kind { return KindInput }
func (*InputStep) step()      {}

// SkipStep records a step that is deliberately not run, with the reason.
// Its wire form carries an explicit `command: null` so a skipped step cannot
// be read as a command step that declared nothing.
type SkipStep struct {
	Reason string
}

func (*SkipStep) Kind() Kind { return KindSkip }
func (*SkipStep) step()      {}
