package transport

// Intent names a control action sent to the player.
type Intent int

const (
	IntentPlay Intent = iota
	IntentPause
	IntentResume
	IntentSeek
	IntentNext
	IntentPrevious
	IntentRestart
	IntentVolume
	IntentShuffle
	IntentRepeat
	IntentRefresh
)

func (i Intent) String() string {
	switch i {
	case IntentPlay:
		return "play"
	case IntentPause:
		return "pause"
	case IntentResume:
		return "resume"
	case IntentSeek:
		return "seek"
	case IntentNext:
		return "next"
	case IntentPrevious:
		return "previous"
	case IntentRestart:
		return "restart"
	case IntentVolume:
		return "volume"
	case IntentShuffle:
		return "shuffle"
	case IntentRepeat:
		return "repeat"
	case IntentRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// field groups intents whose replies overwrite the same part of the snapshot.
// A reply is dropped when a newer intent in its group was issued after it.
type field int

const (
	fieldClock field = iota
	fieldVolume
	fieldShuffle
	fieldRepeat
	numFields
)

func (i Intent) field() field {
	switch i {
	case IntentVolume:
		return fieldVolume
	case IntentShuffle:
		return fieldShuffle
	case IntentRepeat:
		return fieldRepeat
	default:
		return fieldClock
	}
}
