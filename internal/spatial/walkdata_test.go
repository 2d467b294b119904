package spatial

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ro-zone/internal/vec"
)

const testMap = `8 5
........
...#....
...#....
...~....
........
`

func TestLineOfSightBlockedByWall(t *testing.T) {
	wd, err := LoadWalkData(strings.NewReader(testMap), 1)
	require.NoError(t, err)

	assert.False(t, wd.HasLineOfSight(vec.Vec2{X: 1, Y: 1}, vec.Vec2{X: 6, Y: 1}), "стена перекрывает обзор")
	assert.True(t, wd.HasLineOfSight(vec.Vec2{X: 1, Y: 0}, vec.Vec2{X: 6, Y: 0}))
	assert.True(t, wd.HasLineOfSight(vec.Vec2{X: 1, Y: 3}, vec.Vec2{X: 6, Y: 3}), "сквозь '~' можно стрелять")
	assert.False(t, wd.IsWalkable(vec.Vec2{X: 3, Y: 3}), "по '~' нельзя ходить")
	assert.False(t, wd.HasLineOfSight(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 50, Y: 0}), "за границей карты обзора нет")
}

func TestLineOfSightSymmetricOnOpenGround(t *testing.T) {
	wd := NewWalkData(20, 20, 1)
	a, b := vec.Vec2{X: 2, Y: 3}, vec.Vec2{X: 17, Y: 11}
	assert.True(t, wd.HasLineOfSight(a, b))
	assert.True(t, wd.HasLineOfSight(b, a))
}

func TestFindPathAroundWall(t *testing.T) {
	wd, err := LoadWalkData(strings.NewReader(testMap), 1)
	require.NoError(t, err)

	path := wd.FindPath(vec.Vec2{X: 1, Y: 0}, vec.Vec2{X: 6, Y: 0}, 0)
	require.NotEmpty(t, path)
	assert.Equal(t, vec.Vec2{X: 6, Y: 0}, path[len(path)-1])
	for _, p := range path {
		assert.True(t, wd.IsWalkable(p), "путь проходит только по проходимым клеткам")
	}

	assert.Nil(t, wd.FindPath(vec.Vec2{X: 1, Y: 1}, vec.Vec2{X: 2, Y: 1}, 1), "цель уже в радиусе")
}

func TestFindPathStopsInRange(t *testing.T) {
	wd := NewWalkData(30, 30, 1)
	path := wd.FindPath(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 10, Y: 0}, 3)
	require.Len(t, path, 7)
	assert.True(t, path[len(path)-1].InRange(vec.Vec2{X: 10, Y: 0}, 3))
}

func TestFindPathBlocked(t *testing.T) {
	wd := NewWalkData(5, 5, 1)
	for y := 0; y < 5; y++ {
		wd.SetWall(vec.Vec2{X: 2, Y: y})
	}
	assert.Nil(t, wd.FindPath(vec.Vec2{X: 0, Y: 2}, vec.Vec2{X: 4, Y: 2}, 0))
}

func TestRandomWalkablePositionInArea(t *testing.T) {
	wd := NewWalkData(10, 10, 7)
	area := vec.AreaAround(vec.Vec2{X: 5, Y: 5}, 1)
	for i := 0; i < 50; i++ {
		p := wd.RandomWalkablePositionInArea(area)
		assert.True(t, area.Contains(p))
	}

	for y := 4; y <= 6; y++ {
		for x := 4; x <= 6; x++ {
			wd.SetWall(vec.Vec2{X: x, Y: y})
		}
	}
	assert.Equal(t, vec.Invalid, wd.RandomWalkablePositionInArea(area), "в заблокированной области позиции нет")
	assert.Equal(t, vec.Invalid, wd.RandomWalkablePositionInArea(vec.AreaAround(vec.Vec2{X: 50, Y: 50}, 2)))
}

func TestLoadWalkDataFileGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(testMap))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "test.walk.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	wd, err := LoadWalkDataFile(path, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, wd.Width())
	assert.Equal(t, 5, wd.Height())
	assert.False(t, wd.IsWalkable(vec.Vec2{X: 3, Y: 1}))
}

func TestLoadWalkDataErrors(t *testing.T) {
	_, err := LoadWalkData(strings.NewReader(""), 1)
	assert.Error(t, err)
	_, err = LoadWalkData(strings.NewReader("3 3\n...\n"), 1)
	assert.Error(t, err, "строк меньше, чем заявлено")
	_, err = LoadWalkData(strings.NewReader("0 3\n"), 1)
	assert.Error(t, err)
}
