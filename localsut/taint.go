package localsut

// taintBits maps the standard Linux kernel taint-flag bit positions to a
// short human-readable reason, per Documentation/admin-guide/tainted-kernels.rst.
var taintBits = []struct {
	bit    uint
	reason string
}{
	{0, "proprietary module loaded"},
	{1, "module force loaded"},
	{2, "kernel running on an out of specification system"},
	{3, "module force unloaded"},
	{4, "processor reported a machine check exception"},
	{5, "bad page referenced or some unexpected page flags"},
	{6, "taint requested by userspace application"},
	{7, "kernel died recently, i.e. there was an OOPS or BUG"},
	{8, "ACPI table overridden by user"},
	{9, "kernel issued warning"},
	{10, "staging driver loaded"},
	{11, "workaround for bug in platform firmware applied"},
	{12, "externally-built (out-of-tree) module loaded"},
	{13, "unsigned module loaded"},
	{14, "soft lockup occurred"},
	{15, "kernel has been live patched"},
	{16, "auxiliary taint, defined for and used by distros"},
	{17, "kernel was built with the struct randomization plugin"},
	{18, "an in-kernel test has been run"},
	{19, "userspace used a mutating debug operation in fwctl"},
}

// decodeTaintReasons returns the human-readable reasons for each set bit
// in mask, in bit order.
func decodeTaintReasons(mask uint64) []string {
	var reasons []string
	for _, tb := range taintBits {
		if mask&(1<<tb.bit) != 0 {
			reasons = append(reasons, tb.reason)
		}
	}
	return reasons
}
