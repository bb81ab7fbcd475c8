package models

import "time"

var testTime = time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
