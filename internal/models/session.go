package models

import "time"

// Версии шкалы оценок тренировки
const (
	ScoreVersionUnknown = 0 // шкала определяется по значению
	ScoreVersionLegacy  = 1 // 0–3
	ScoreVersionCurrent = 2 // 0–10
)

// PracticeSession запись об одной тренировке сцены.
// Score == nil означает, что оценка не была сохранена.
type PracticeSession struct {
	UserUID      string
	SceneID      string
	Score        *float64
	ScoreVersion int
	RecordedAt   time.Time
}

// DummySession используется для приёма данных тренировки из JSON-запроса.
type DummySession struct {
	Score        *float64 `json:"score" validate:"required,min=0,max=10"`
	ScoreVersion int      `json:"score_version" validate:"omitempty,oneof=1 2"`
}
