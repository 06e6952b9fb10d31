package service

import (
	"sort"

	"road-defect-go/pkg/models"
)

// AggregateEvidence собирает доказательства дефекта по всем снимкам одного
// наблюдения. Возвращает nil, если ни на одном снимке ничего не найдено.
//
// Средняя уверенность считается по всем обнаружениям всех снимков, а не как
// среднее по-снимочных средних: кадр с пятью слабыми обнаружениями тянет
// среднее вниз сильнее, чем кадр с одним.
func AggregateEvidence(verdicts []models.ImageVerdict, streetName string) *models.EvidenceBundle {
	if len(verdicts) == 0 {
		return nil
	}

	totalConfidence := 0.0
	totalDetections := 0
	classSet := make(map[string]struct{})

	originals := make([][]byte, 0, len(verdicts))
	annotated := make([][]byte, 0, len(verdicts))

	for _, verdict := range verdicts {
		for _, detection := range verdict.Detections {
			totalConfidence += detection.Confidence
			totalDetections++
			classSet[detection.Class] = struct{}{}
		}

		// Порядок артефактов совпадает по индексу: i-й оригинал и i-я
		// аннотированная копия относятся к одному снимку
		originals = append(originals, verdict.Original)
		annotated = append(annotated, verdict.Annotated)
	}

	classes := make([]string, 0, len(classSet))
	for class := range classSet {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	return &models.EvidenceBundle{
		StreetName:      streetName,
		TakenDate:       verdicts[0].Image.TakenDate,
		AvgConfidence:   totalConfidence / float64(totalDetections),
		DetectionCount:  totalDetections,
		DetectedClasses: classes,
		OriginalImages:  originals,
		AnnotatedImages: annotated,
	}
}
