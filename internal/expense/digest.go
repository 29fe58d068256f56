package expense

import "strconv"

// digestText renders the daily digest body for the given expense count.
func digestText(count int) string {
	switch count {
	case 0:
		return "No expenses today? Add new ones if there are any."
	case 1:
		return "1 expense added for today."
	default:
		return strconv.Itoa(count) + " expenses added for today."
	}
}
