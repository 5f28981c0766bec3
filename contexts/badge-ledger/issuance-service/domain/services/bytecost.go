package services

// Byte-cost model sizing the billing deduction of each mutating operation.
// The numbers approximate on-ledger storage growth and feed UseCredit only;
// they never gate correctness.

// AchievementBytes is the fixed cost of one achievement write: four 64-bit
// fields plus one 32-bit counter.
func AchievementBytes() uint64 {
	return 4*64 + 32
}

// BadgeInitBytes is the cost of registering a badge: three 64-bit fields, two
// 32-bit fields and the variable-length text, doubled for index overhead.
func BadgeInitBytes(details string, uri string) uint64 {
	return 2 * (3*64 + 2*32 + uint64(len(details)) + uint64(len(uri)))
}
