package pac

func resetTaken() { taken.Store(false) }
