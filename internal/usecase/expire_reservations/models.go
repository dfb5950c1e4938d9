package expire_reservations

// Result итоги одного цикла обработки просроченных броней
type Result struct {
	Expired   int // сколько броней отменено по неявке
	Skipped   int // сколько пропущено (успели перейти из reserved)
	Failed    int // сколько завершилось ошибкой
	Deferred  int // из отмененных: штраф ушел в задолженность
	Collected int // из отмененных: штраф списан с кошелька
}
