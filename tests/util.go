// Package testutil wires the application over the in-memory database for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/fee"
	"github.com/trezcool/darasa/core/fine"
	"github.com/trezcool/darasa/core/notify"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
	appfs "github.com/trezcool/darasa/fs"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var (
	LateFine   = decimal.RequireFromString("3.50")
	AbsentFine = decimal.RequireFromString("5.00")
)

// Stack holds every service of the app, sharing one in-memory database.
type Stack struct {
	Conf       *core.Config
	Logger     core.Logger
	DB         *inmemdb.DB
	Validate   *validator.Validate
	Translator ut.Translator
	MailSvc    *emailsvc.ConsoleServiceMock

	UserRepo      user.Repository
	UserSvc       *user.Service
	SchoolSvc     *school.Service
	AttendanceSvc *attendance.Service
	FineSvc       *fine.Service
	FeeSvc        *fee.Service
	Dispatcher    *notify.Dispatcher
}

// NewConfig is the app config in TEST mode, with both attendance fines enabled.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Env = "TEST"
	conf.Debug = false
	conf.TestMode = true
	conf.AppName = "Darasa"
	conf.Server.DisableReqLogs = true
	conf.Fines.Currency = "KES"
	conf.Fines.LateAmount = LateFine
	conf.Fines.AbsentAmount = AbsentFine
	conf.Notify.DefaultRegion = "KE"
	return conf
}

func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	fine.InitValidators(validate, translator)
	return validate, translator
}

func NewStack(t *testing.T) *Stack {
	t.Helper()

	conf := NewConfig()
	logger := NewLogger(conf)
	validate, translator := NewValidator()
	core.ParseEmailTemplates(appfs.FS, conf.FrontendBaseURL, true /* strict */, logger)

	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	usrRepo := inmemdb.NewUserRepository(db)
	schoolSvc := school.NewService(inmemdb.NewSchoolRepository(db), validate)
	attendanceSvc := attendance.NewService(inmemdb.NewAttendanceRepository(db), schoolSvc, validate)
	fineSvc := fine.NewService(inmemdb.NewFineRepository(db), schoolSvc, conf.Fines, validate)

	return &Stack{
		Conf:          conf,
		Logger:        logger,
		DB:            db,
		Validate:      validate,
		Translator:    translator,
		MailSvc:       mailSvc,
		UserRepo:      usrRepo,
		UserSvc:       user.NewService(usrRepo, validate),
		SchoolSvc:     schoolSvc,
		AttendanceSvc: attendanceSvc,
		FineSvc:       fineSvc,
		FeeSvc:        fee.NewService(inmemdb.NewFeeRepository(db), schoolSvc, validate),
		Dispatcher:    notify.NewDispatcher(schoolSvc, attendanceSvc, fineSvc, mailSvc, conf),
	}
}

// Reset empties the database & the sent mailbox.
func (s *Stack) Reset() {
	s.DB.Reset()
	s.MailSvc.Reset()
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(t *testing.T, svc *school.Service, name string) school.Class {
	t.Helper()

	cls, err := svc.CreateClass(context.Background(), school.NewClass{Name: name})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

// CreateStudent enrolls an active student whose guardian has a Kenyan phone & an email.
func CreateStudent(t *testing.T, svc *school.Service, classID, admissionNo, firstName, lastName string) school.Student {
	t.Helper()

	st, err := svc.CreateStudent(context.Background(), school.NewStudent{
		AdmissionNo:   admissionNo,
		FirstName:     firstName,
		LastName:      lastName,
		ClassID:       classID,
		GuardianName:  "Parent " + lastName,
		GuardianPhone: "0712 345 678",
		GuardianEmail: "parent." + admissionNo + "@school.test",
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

func CreateFine(t *testing.T, svc *fine.Service, studentID, fineType, amount string) fine.Fine {
	t.Helper()

	f, err := svc.IssueFine(context.Background(), studentID, fine.NewFine{
		FineType: fineType,
		Amount:   decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("CreateFine() failed: %v", err)
	}
	return f
}

func CreateInvoice(t *testing.T, svc *fee.Service, studentID, title, amount string, dueDate core.Date) fee.Invoice {
	t.Helper()

	inv, err := svc.CreateInvoice(context.Background(), studentID, fee.NewInvoice{
		Title:     title,
		AmountDue: decimal.RequireFromString(amount),
		DueDate:   dueDate.String(),
	})
	if err != nil {
		t.Fatalf("CreateInvoice() failed: %v", err)
	}
	return inv
}
