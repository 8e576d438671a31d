package domain

import "time"

// Session guarda el estado conversacional de un usuario: CV original, historial y correcciones.
type Session struct {
	ID          string         `json:"session_id"`
	ResumeText  *string        `json:"resume_text,omitempty"`
	Messages    []Message      `json:"conversation_history"`
	Corrections []string       `json:"user_corrections"`
	UserInfo    map[string]any `json:"user_info"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewSession crea una sesion vacia con el id indicado.
func NewSession(id string) Session {
	return Session{
		ID:          id,
		Messages:    []Message{},
		Corrections: []string{},
		UserInfo:    map[string]any{},
		CreatedAt:   time.Now().UTC(),
	}
}

// HasResume indica si la sesion ya tiene un CV cargado.
func (s Session) HasResume() bool {
	return s.ResumeText != nil
}

// SetResume fija el texto del CV solo la primera vez; el original nunca se reemplaza.
func (s *Session) SetResume(text string) bool {
	if s.ResumeText != nil {
		return false
	}
	t := text
	s.ResumeText = &t
	return true
}

func (s *Session) AppendMessage(role MessageRole, content string) Message {
	msg := NewMessage(role, content)
	s.Messages = append(s.Messages, msg)
	return msg
}

func (s *Session) AppendCorrection(text string) {
	s.Corrections = append(s.Corrections, text)
}

// Clone devuelve una copia profunda para que los stores no compartan slices con los callers.
func (s Session) Clone() Session {
	out := s
	if s.ResumeText != nil {
		t := *s.ResumeText
		out.ResumeText = &t
	}
	out.Messages = append([]Message(nil), s.Messages...)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	out.Corrections = append([]string(nil), s.Corrections...)
	if out.Corrections == nil {
		out.Corrections = []string{}
	}
	out.UserInfo = make(map[string]any, len(s.UserInfo))
	for k, v := range s.UserInfo {
		out.UserInfo[k] = v
	}
	return out
}
