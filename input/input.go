// 把键盘按键和触摸滑动翻译成方向
package input

import "github.com/hoshinonyaruko/snake-web/structs"

// DefaultSwipeThreshold 滑动距离必须超过这个值才算一次有效滑动
const DefaultSwipeThreshold = 30

// FromKey maps a browser key name to a direction.
func FromKey(key string) (structs.Direction, bool) {
	switch key {
	case "ArrowUp", "w", "W":
		return structs.Up, true
	case "ArrowDown", "s", "S":
		return structs.Down, true
	case "ArrowLeft", "a", "A":
		return structs.Left, true
	case "ArrowRight", "d", "D":
		return structs.Right, true
	}
	return structs.Stopped, false
}

// FromSwipe maps a touch displacement to a direction. The dominant axis
// decides; its displacement must exceed threshold.
func FromSwipe(dx, dy, threshold float64) (structs.Direction, bool) {
	if abs(dx) > abs(dy) {
		switch {
		case dx > threshold:
			return structs.Right, true
		case dx < -threshold:
			return structs.Left, true
		}
		return structs.Stopped, false
	}
	switch {
	case dy > threshold:
		return structs.Down, true
	case dy < -threshold:
		return structs.Up, true
	}
	return structs.Stopped, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
