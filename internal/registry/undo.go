package registry

// UndoLog collects reversible mutations for one lifecycle operation. Each
// mutation records its inverse; if the persistence attempt fails, Revert
// restores the model to its pre-operation state.
type UndoLog struct {
	steps []func()
}

func (u *UndoLog) Record(step func()) {
	u.steps = append(u.steps, step)
}

// Revert runs the recorded steps in reverse order and clears the log.
func (u *UndoLog) Revert() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}

func (u *UndoLog) Len() int { return len(u.steps) }
