package spatial

import (
	"github.com/aquilax/go-perlin"

	"github.com/annel0/ro-zone/internal/vec"
)

// Параметры шума: сглаживание, частота, октавы
const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = int32(3)
	// noiseScale клеток на период шума
	noiseScale = 24.0
)

// GenerateWalkData строит карту с препятствиями по шуму Перлина.
// density доля от 0 до 1: чем больше, тем больше стен. Нижняя полоса шума над порогом
// становится водой: пройти нельзя, стрелять можно. Края карты всегда проходимы.
func GenerateWalkData(width, height int, seed uint64, density float64) *WalkData {
	wd := NewWalkData(width, height, seed)
	if density <= 0 {
		return wd
	}
	if density > 0.9 {
		density = 0.9
	}

	noise := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, int64(seed))
	wall := 1 - density
	water := wall - density/4

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			// [-1, 1] → [0, 1]
			v := (noise.Noise2D(float64(x)/noiseScale, float64(y)/noiseScale) + 1) / 2
			p := vec.Vec2{X: x, Y: y}
			switch {
			case v >= wall:
				wd.SetWall(p)
			case v >= water:
				wd.SetCell(p, CellSnipeable)
			}
		}
	}
	return wd
}

// WalkableRatio доля проходимых клеток
func (wd *WalkData) WalkableRatio() float64 {
	if len(wd.cells) == 0 {
		return 0
	}
	n := 0
	for _, c := range wd.cells {
		if c&CellWalkable != 0 {
			n++
		}
	}
	return float64(n) / float64(len(wd.cells))
}
