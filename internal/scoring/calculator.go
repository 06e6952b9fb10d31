package scoring

import (
	"time"

	"road-defect-go/pkg/models"
)

// DefaultBaseMultiplier базовый множитель скоринга по умолчанию
const DefaultBaseMultiplier = 30.0

// Calculator вычисляет оценку серьёзности дефекта
type Calculator struct {
	baseMultiplier float64
	now            func() time.Time
}

// NewCalculator создает новый калькулятор оценки дефекта
func NewCalculator(baseMultiplier float64) *Calculator {
	if baseMultiplier <= 0 {
		baseMultiplier = DefaultBaseMultiplier
	}
	return &Calculator{
		baseMultiplier: baseMultiplier,
		now:            time.Now,
	}
}

// NewCalculatorAt создает калькулятор с фиксированными часами
func NewCalculatorAt(baseMultiplier float64, now func() time.Time) *Calculator {
	c := NewCalculator(baseMultiplier)
	c.now = now
	return c
}

// Score вычисляет оценку дефекта по средней уверенности, количеству обнаружений
// и дате съёмки в формате YYYY-MM. Оценка растёт с уверенностью и количеством
// обнаружений и затухает с возрастом снимка: старые панорамы могут уже не
// отражать текущее состояние дороги.
//
// Снимок текущего месяца считается месячной давности, иначе деление на ноль.
// Неизвестная дата съёмки даёт оценку 0: затухание вычислить нечем.
func (c *Calculator) Score(avgConfidence float64, numDetections int, takenDate string) float64 {
	months, ok := c.monthsElapsed(takenDate)
	if !ok {
		return 0
	}

	raw := avgConfidence * (1 + float64(numDetections)/100)
	return (c.baseMultiplier * raw) / (float64(months) / 10)
}

// monthsElapsed возвращает количество полных календарных месяцев с даты съёмки,
// но не меньше одного
func (c *Calculator) monthsElapsed(takenDate string) (int, bool) {
	if takenDate == "" || takenDate == models.UnknownDate {
		return 0, false
	}

	taken, err := time.Parse("2006-01", takenDate)
	if err != nil {
		return 0, false
	}

	today := c.now()
	months := (today.Year()-taken.Year())*12 + int(today.Month()) - int(taken.Month())
	if months < 1 {
		months = 1
	}

	return months, true
}
