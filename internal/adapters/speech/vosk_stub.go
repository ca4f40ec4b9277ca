//go:build !vosk

package speech

// Vosk is unavailable in builds without the vosk tag.
type Vosk struct{}

var _ Streaming = (*Vosk)(nil)

// NewVosk always fails; rebuild with -tags vosk and libvosk installed.
func NewVosk(string, int) (*Vosk, error) { return nil, ErrEngineUnavailable }

func (*Vosk) Name() string { return "vosk" }

func (*Vosk) Accept([]byte) (bool, error) { return false, ErrEngineUnavailable }

func (*Vosk) Result() (Transcript, error) { return Transcript{}, ErrEngineUnavailable }

func (*Vosk) Reset() {}

func (*Vosk) Close() error { return nil }
