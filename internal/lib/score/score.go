// Package score считает итоговую оценку пользователя по сцене как
// среднее по тренировкам, взвешенное по давности.
package score

import (
	"math"
	"time"

	"github.com/magabrotheeeer/script-access/internal/models"
)

// DefaultHalfLife период, за который вес тренировки уменьшается вдвое.
const DefaultHalfLife = 14 * 24 * time.Hour

const (
	legacyMax = 3.0
	scaleMax  = 10.0
	epsilon   = 1e-9
)

// Normalize приводит оценку к шкале 0–10.
// Если версия шкалы известна, используется она. Для неизвестной версии
// значения не больше 3 считаются оценками по старой шкале 0–3.
func Normalize(value float64, version int) float64 {
	switch version {
	case models.ScoreVersionLegacy:
		return value * scaleMax / legacyMax
	case models.ScoreVersionCurrent:
		return value
	}
	if value <= legacyMax {
		return value * scaleMax / legacyMax
	}
	return value
}

// Aggregate возвращает взвешенное среднее нормализованных оценок на момент now.
// Вес тренировки 2^(-age/halfLife). Тренировки без оценки или без времени
// не учитываются. Если учитывать нечего, результат 0.
func Aggregate(sessions []models.PracticeSession, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		halfLife = DefaultHalfLife
	}

	var weighted, total float64
	for _, s := range sessions {
		if s.Score == nil || s.RecordedAt.IsZero() {
			continue
		}
		v := *s.Score
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		age := now.Sub(s.RecordedAt).Seconds()
		if age < 0 {
			age = 0
		}
		w := math.Exp2(-age / halfLife.Seconds())
		weighted += w * Normalize(v, s.ScoreVersion)
		total += w
	}

	if total < epsilon {
		return 0
	}
	return weighted / total
}
