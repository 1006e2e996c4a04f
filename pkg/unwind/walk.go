package unwind

// MaxUserFrames bounds the number of frames a single walk may
// produce. The in-kernel program enforces the same bound with an
// unrolled, statically-bounded loop so the verifier can prove
// termination; the software walker here applies the identical bound
// so its output matches frame-for-frame.
const MaxUserFrames = 127

// Memory is the bounded, never-panicking memory access the walker
// needs: a single 8-byte read at an absolute address. Implementations
// report failure instead of erroring loudly, the same way a
// bpf_probe_read_user call reports failure instead of faulting.
type Memory interface {
	ReadUint64(addr uint64) (uint64, bool)
}

// Frame is one entry of a walked native stack trace.
type Frame struct {
	PC uint64
}

// Walk applies table's rules starting from the given registers,
// producing a bounded sequence of frames. spDivisor must match the
// divisor the table's rules were translated with (8 for x86_64, 16
// for AArch64). It returns the frames collected before a stop
// condition, plus a non-nil error describing why the walk ended if
// that reason wasn't a clean "reached the root" stop.
func Walk(table *Table, mem Memory, spDivisor int64, initialSP, initialFP, initialPC uint64) ([]Frame, error) {
	frames := []Frame{{PC: initialPC}}
	sp, fp, pc := initialSP, initialFP, initialPC
	isFirstFrame := true

	for i := 1; i < MaxUserFrames; i++ {
		row, ok := table.Lookup(pc)
		if !ok {
			return frames, nil
		}
		rule := row.Rule

		var newSP, newFP, newPC uint64
		var haveNewPC, done bool
		newFP = fp

		switch rule.Kind {
		case KindInvalid:
			return frames, &WalkError{Kind: InvalidRule, Addr: pc}

		case KindNoOp:
			return frames, nil

		case KindNoOpFirstFrame:
			// Ambiguous at the very first (sampled) frame, an
			// unambiguous stack root at any later one; either way
			// the walk has nothing further to do.
			return frames, nil

		case KindOffsetSp:
			// The return-address rule isn't literally undefined here,
			// so the return address still lives at the conventional
			// one-word-below-CFA slot: recover it and keep walking.
			var err error
			newSP, err = addOffset(sp, rule.K, spDivisor, pc)
			if err != nil {
				return frames, err
			}
			if newPC, done, err = readReturnAddress(mem, newSP, -1, pc); err != nil {
				return frames, err
			}
			haveNewPC = !done

		case KindOffsetSpFirstFrame:
			// Undefined may mean "stack ends here", which is only a
			// safe reading once we're past the very first (sampled)
			// frame; on the first frame it's read the same as OffsetSp.
			if !isFirstFrame {
				return frames, nil
			}
			var err error
			newSP, err = addOffset(sp, rule.K, spDivisor, pc)
			if err != nil {
				return frames, err
			}
			if newPC, done, err = readReturnAddress(mem, newSP, -1, pc); err != nil {
				return frames, err
			}
			haveNewPC = !done

		case KindOffsetSpAndRestoreReturn:
			var err error
			newSP, err = addOffset(sp, rule.K, spDivisor, pc)
			if err != nil {
				return frames, err
			}
			newFP = fp
			if newPC, done, err = readReturnAddress(mem, newSP, rule.A, pc); err != nil {
				return frames, err
			}
			haveNewPC = !done

		case KindOffsetSpAndRestoreFrameAndReturn:
			var err error
			newSP, err = addOffset(sp, rule.K, spDivisor, pc)
			if err != nil {
				return frames, err
			}
			fpAddr := uint64(int64(newSP) + int64(rule.B)*8)
			var ok bool
			if newFP, ok = mem.ReadUint64(fpAddr); !ok {
				return frames, &WalkError{Kind: CouldNotReadStack, Addr: fpAddr}
			}
			if newPC, done, err = readReturnAddress(mem, newSP, rule.A, pc); err != nil {
				return frames, err
			}
			haveNewPC = !done

		case KindUseFramePointer:
			if fp == 0 {
				// No frame to chain from: the stack bottom, not a
				// failed read.
				return frames, nil
			}
			newSP = fp + 16
			var ok bool
			if newFP, ok = mem.ReadUint64(fp); !ok {
				return frames, &WalkError{Kind: CouldNotReadStack, Addr: fp}
			}
			raAddr := fp + 8
			ra, ok := mem.ReadUint64(raAddr)
			if !ok {
				return frames, &WalkError{Kind: CouldNotReadStack, Addr: raAddr}
			}
			if ra == 0 {
				// A null return address signals the stack bottom, not
				// a failure: stop cleanly.
				return frames, nil
			}
			newPC = ra
			haveNewPC = true

		case KindUseFramePointerWithOffsets:
			newSP = uint64(int64(fp) + int64(rule.K))
			fpAddr := uint64(int64(fp) + int64(rule.B))
			var ok bool
			if newFP, ok = mem.ReadUint64(fpAddr); !ok {
				return frames, &WalkError{Kind: CouldNotReadStack, Addr: fpAddr}
			}
			raAddr := uint64(int64(fp) + int64(rule.A))
			ra, ok := mem.ReadUint64(raAddr)
			if !ok {
				return frames, &WalkError{Kind: CouldNotReadStack, Addr: raAddr}
			}
			if ra == 0 {
				return frames, nil
			}
			newPC = ra
			haveNewPC = true

		default:
			return frames, &WalkError{Kind: InvalidRule, Addr: pc}
		}

		if !haveNewPC {
			return frames, nil
		}
		// sp must strictly increase between non-first frames; the very
		// first (sampled) frame's transition is exempt, since it may
		// legitimately hand back a cell at or below the sampled sp.
		if !isFirstFrame && newSP <= sp {
			return frames, &WalkError{Kind: DidNotAdvance, Addr: newSP}
		}
		if !isFirstFrame && (rule.Kind == KindUseFramePointer || rule.Kind == KindUseFramePointerWithOffsets) {
			if newFP != 0 && newFP <= fp {
				return frames, &WalkError{Kind: FramepointerUnwindingMovedBackwards, Addr: newFP}
			}
		}

		frames = append(frames, Frame{PC: newPC})
		sp, fp, pc = newSP, newFP, newPC
		isFirstFrame = false
	}
	return frames, nil
}

// addOffset computes base + k*divisor with unsigned-wraparound checked
// arithmetic, matching Rust's checked_add: a sum (or difference, for
// negative k) that would wrap past the uint64 range aborts the walk
// instead of silently producing a small, bogus address.
func addOffset(base uint64, k int16, divisor int64, pc uint64) (uint64, error) {
	delta := int64(k) * divisor
	if delta >= 0 {
		d := uint64(delta)
		if base > ^uint64(0)-d {
			return 0, &WalkError{Kind: IntegerOverflow, Addr: pc}
		}
		return base + d, nil
	}
	d := uint64(-delta)
	if base < d {
		return 0, &WalkError{Kind: IntegerOverflow, Addr: pc}
	}
	return base - d, nil
}

// readReturnAddress reads the return address at newSP+raOff*8. A
// failed read is an error; a successfully read but null address means
// the stack bottom was reached (done=true), not a failure.
func readReturnAddress(mem Memory, newSP uint64, raOff int16, pc uint64) (ra uint64, done bool, err error) {
	addr := uint64(int64(newSP) + int64(raOff)*8)
	v, ok := mem.ReadUint64(addr)
	if !ok {
		return 0, false, &WalkError{Kind: CouldNotReadStack, Addr: addr}
	}
	if v == 0 {
		return 0, true, nil
	}
	return v, false, nil
}
