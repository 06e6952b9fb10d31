package service

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"road-defect-go/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestAcquisitionService_PartialHeadings(t *testing.T) {
	// Панорамы есть только для севера и юга
	imagery := &fakeImagery{
		streetName: "Jl. Pandanaran",
		available: map[int]string{
			0:   "2023-11",
			180: "2023-10",
		},
	}

	svc := NewAcquisitionService(imagery, testLogger())
	result := svc.Acquire(models.Coordinates{Lat: -6.9922, Lng: 110.4237})

	require.Equal(t, "Jl. Pandanaran", result.StreetName)
	require.Len(t, result.Images, 2)

	// Порядок направлений стабилен независимо от параллельной загрузки
	require.Equal(t, 0, result.Images[0].Heading)
	require.Equal(t, "2023-11", result.Images[0].TakenDate)
	require.Equal(t, 180, result.Images[1].Heading)
	require.Equal(t, "2023-10", result.Images[1].TakenDate)

	// Улица геокодируется один раз на вызов
	require.Equal(t, 1, imagery.geocodeCalls)
}

func TestAcquisitionService_FetchFailureSkipsHeading(t *testing.T) {
	imagery := &fakeImagery{
		streetName: "Jl. Pemuda",
		available: map[int]string{
			0:  "2024-01",
			90: "2024-01",
		},
		fetchErr: map[int]error{
			90: fmt.Errorf("timeout"),
		},
	}

	svc := NewAcquisitionService(imagery, testLogger())
	result := svc.Acquire(models.Coordinates{Lat: -6.98, Lng: 110.41})

	// Сбой загрузки одного направления не мешает остальным
	require.Len(t, result.Images, 1)
	require.Equal(t, 0, result.Images[0].Heading)
}

func TestAcquisitionService_NoImagery(t *testing.T) {
	imagery := &fakeImagery{streetName: "", available: map[int]string{}}

	svc := NewAcquisitionService(imagery, testLogger())
	result := svc.Acquire(models.Coordinates{Lat: 0, Lng: 0})

	require.Equal(t, models.UnknownStreet, result.StreetName)
	require.Empty(t, result.Images)
}
