// Package fuzztests houses Go fuzz harnesses that push arbitrary bytes through
// the fixture decoder, the checker and the lowering pass. The goal is to catch
// panics, hangs and programs that break their own structural invariants.
package fuzztests
