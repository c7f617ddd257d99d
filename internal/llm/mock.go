package llm

import "context"

// MockClient permite tests sin llamar a un backend real. Cada llamada a
// StreamChat consume el siguiente guion de Scripts; Err corta antes de abrir
// el stream.
type MockClient struct {
	Scripts [][]Event
	Err     error

	Calls [][]Message
	call  int
}

func (m *MockClient) StreamChat(ctx context.Context, messages []Message, _ []Tool) (<-chan Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Calls = append(m.Calls, messages)

	var script []Event
	if m.call < len(m.Scripts) {
		script = m.Scripts[m.call]
	}
	m.call++

	events := make(chan Event)
	go func() {
		defer close(events)
		for _, ev := range script {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
