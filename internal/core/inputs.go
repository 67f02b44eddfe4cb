package core

// Write-side inputs. Create inputs carry every user-supplied field; patches use
// pointers so that nil means "leave untouched".
type (
	NewIncome struct {
		Date          Date   `json:"date" validate:"required"`
		ClientName    string `json:"clientName" validate:"required,notblank,max=200"`
		BroughtBy     string `json:"broughtBy" validate:"required,notblank,max=200"`
		PrimaryAmount Money  `json:"primaryAmount" validate:"gt=0"`
		CautionFee    Money  `json:"cautionFee" validate:"gte=0"`
		Commission    Money  `json:"commission" validate:"gte=0"`
		// MonthKey is optional; when present it must agree with Date.
		MonthKey MonthKey `json:"monthKey,omitempty"`
	}

	IncomePatch struct {
		Date          *Date   `json:"date,omitempty"`
		ClientName    *string `json:"clientName,omitempty" validate:"omitempty,notblank,max=200"`
		BroughtBy     *string `json:"broughtBy,omitempty" validate:"omitempty,notblank,max=200"`
		PrimaryAmount *Money  `json:"primaryAmount,omitempty" validate:"omitempty,gt=0"`
		CautionFee    *Money  `json:"cautionFee,omitempty" validate:"omitempty,gte=0"`
		Commission    *Money  `json:"commission,omitempty" validate:"omitempty,gte=0"`
	}

	NewExpense struct {
		Date     Date            `json:"date" validate:"required"`
		Name     string          `json:"name" validate:"required,notblank,max=200"`
		Category ExpenseCategory `json:"category" validate:"required,expense_category"`
		Amount   Money           `json:"amount" validate:"gt=0"`
		Notes    string          `json:"notes" validate:"max=1000"`
		MonthKey MonthKey        `json:"monthKey,omitempty"`
	}

	ExpensePatch struct {
		Date     *Date            `json:"date,omitempty"`
		Name     *string          `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
		Category *ExpenseCategory `json:"category,omitempty" validate:"omitempty,expense_category"`
		Amount   *Money           `json:"amount,omitempty" validate:"omitempty,gt=0"`
		Notes    *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
	}

	NewWithdrawal struct {
		Date        Date     `json:"date" validate:"required"`
		Amount      Money    `json:"amount" validate:"gt=0"`
		Recipient   string   `json:"recipient" validate:"required,notblank,max=100"`
		Description string   `json:"description" validate:"max=1000"`
		MonthKey    MonthKey `json:"monthKey,omitempty"`
	}

	WithdrawalPatch struct {
		Date        *Date   `json:"date,omitempty"`
		Amount      *Money  `json:"amount,omitempty" validate:"omitempty,gt=0"`
		Recipient   *string `json:"recipient,omitempty" validate:"omitempty,notblank,max=100"`
		Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	}
)

// Validate checks the income input, including the optional month key.
func (in NewIncome) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	return checkMonthKey(in.MonthKey, in.Date)
}

func (p IncomePatch) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.Date != nil && p.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if p.IsEmpty() {
		return NewValidationError("body", "must change at least one field")
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p IncomePatch) IsEmpty() bool {
	return p.Date == nil && p.ClientName == nil && p.BroughtBy == nil &&
		p.PrimaryAmount == nil && p.CautionFee == nil && p.Commission == nil
}

// TouchesNetIncome reports whether the patch changes an input of NetIncome.
func (p IncomePatch) TouchesNetIncome() bool {
	return p.PrimaryAmount != nil || p.CautionFee != nil || p.Commission != nil
}

func (in NewExpense) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	return checkMonthKey(in.MonthKey, in.Date)
}

func (p ExpensePatch) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.Date != nil && p.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if p.IsEmpty() {
		return NewValidationError("body", "must change at least one field")
	}
	return nil
}

func (p ExpensePatch) IsEmpty() bool {
	return p.Date == nil && p.Name == nil && p.Category == nil && p.Amount == nil && p.Notes == nil
}

func (in NewWithdrawal) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	return checkMonthKey(in.MonthKey, in.Date)
}

func (p WithdrawalPatch) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.Date != nil && p.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if p.IsEmpty() {
		return NewValidationError("body", "must change at least one field")
	}
	return nil
}

func (p WithdrawalPatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Recipient == nil && p.Description == nil
}

// checkMonthKey rejects an explicit month key that disagrees with the date.
func checkMonthKey(k MonthKey, d Date) error {
	if k == "" {
		return nil
	}
	if k != d.MonthKey() {
		return NewValidationError("monthKey", "must match the month of date")
	}
	return nil
}
