package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StateChanged <-chan StateChange
	SongChanged  <-chan SongChange
	Progressed   <-chan Progress
	QueueChanged <-chan QueueChange
	Error        <-chan ErrorEvent
	Done         <-chan struct{}

	// Internal write channels
	stateCh    chan StateChange
	songCh     chan SongChange
	progressCh chan Progress
	queueCh    chan QueueChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan StateChange, eventBufferSize),
		songCh:     make(chan SongChange, eventBufferSize),
		progressCh: make(chan Progress, eventBufferSize),
		queueCh:    make(chan QueueChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.SongChanged = s.songCh
	s.Progressed = s.progressCh
	s.QueueChanged = s.queueCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendState sends a state change event (non-blocking).
func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendSong sends a song change event (non-blocking).
func (s *Subscription) sendSong(e SongChange) {
	select {
	case s.songCh <- e:
	default:
	}
}

// sendProgress sends a progress event (non-blocking).
func (s *Subscription) sendProgress(e Progress) {
	select {
	case s.progressCh <- e:
	default:
	}
}

// sendQueue sends a queue change event (non-blocking).
func (s *Subscription) sendQueue(e QueueChange) {
	select {
	case s.queueCh <- e:
	default:
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
