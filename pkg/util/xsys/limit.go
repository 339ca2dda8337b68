package xsys

// target 计算新的 soft limit：不降低，不超过 hard。
func target(want, soft, hard uint64) uint64 {
	if soft >= want {
		return soft
	}
	return min(want, hard)
}
