package parking

import "time"

func SetTariffClock(uc *TariffUseCase, now func() time.Time) { uc.now = now }
