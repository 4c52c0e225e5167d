// Package geofence - чистая проверка попадания GPS-точки в круговую
// геозону проекта. Никакого внешнего состояния: расстояние считается
// по формуле гаверсинусов, допуск применяется поверх радиуса.
package geofence

import (
	"errors"
	"math"
	"time"
)

// Средний радиус Земли в метрах
const earthRadiusMeters = 6371000.0

// ErrMissingCenter возвращается при отсутствии координат центра геозоны.
// Политику обхода (пропустить или отклонить) выбирает вызывающая сторона.
var ErrMissingCenter = errors.New("geofence center coordinates are not configured")

// Spec - параметры круговой геозоны проекта
type Spec struct {
	CenterLatitude        float64
	CenterLongitude       float64
	RadiusMeters          float64
	AllowedVarianceMeters float64
	StrictMode            bool
}

// Sample - сырое GPS-показание с устройства
type Sample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	CapturedAt     time.Time
}

// Result - результат проверки геозоны
type Result struct {
	DistanceMeters  float64 `json:"distance_meters"`
	EffectiveRadius float64 `json:"effective_radius"`
	Inside          bool    `json:"inside_geofence"`
}

// EffectiveRadius возвращает радиус с учетом допуска.
// В строгом режиме допуск игнорируется.
func (s Spec) EffectiveRadius() float64 {
	if s.StrictMode {
		return s.RadiusMeters
	}
	return s.RadiusMeters + s.AllowedVarianceMeters
}

// Distance считает расстояние между двумя точками в метрах (гаверсинус)
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Validate проверяет попадание точки в геозону.
// Точность GPS (AccuracyMeters) носит справочный характер и никогда
// не расширяет геозону.
func Validate(sample Sample, spec *Spec) (Result, error) {
	if spec == nil || spec.RadiusMeters < 0 {
		return Result{}, ErrMissingCenter
	}

	distance := Distance(sample.Latitude, sample.Longitude, spec.CenterLatitude, spec.CenterLongitude)
	effective := spec.EffectiveRadius()

	return Result{
		DistanceMeters:  distance,
		EffectiveRadius: effective,
		Inside:          distance <= effective,
	}, nil
}
