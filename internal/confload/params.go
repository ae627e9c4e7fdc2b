package confload

import (
	"context"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/pkg/errors"
)

const paramTag = "paramName"

// LoadParams fills string fields tagged `paramName:"NAME"` from the SSM
// parameter store, walking nested structs. A ",secret" suffix requests
// decryption. Fields without the tag, or whose parameter does not exist,
// keep their file values.
func LoadParams(ctx context.Context, svc ssmiface.SSMAPI, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.New("LoadParams requires a pointer to a tagged struct")
	}
	return loadParams(ctx, svc, rv.Elem())
}

func loadParams(ctx context.Context, svc ssmiface.SSMAPI, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field, value := rt.Field(i), rv.Field(i)
		if !field.IsExported() {
			continue
		}

		if value.Kind() == reflect.Struct {
			if err := loadParams(ctx, svc, value); err != nil {
				return err
			}
			continue
		}

		tag := field.Tag.Get(paramTag)
		if tag == "" {
			continue
		}
		if value.Kind() != reflect.String {
			return errors.Errorf("param %s: field %s is not a string", tag, field.Name)
		}

		name, secret := tag, false
		if strings.HasSuffix(tag, ",secret") {
			name, secret = strings.TrimSuffix(tag, ",secret"), true
		}

		out, err := svc.GetParameterWithContext(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(secret),
		})
		if err != nil {
			var aerr awserr.Error
			if errors.As(err, &aerr) && aerr.Code() == ssm.ErrCodeParameterNotFound {
				continue
			}
			return errors.Wrapf(err, "get parameter %s", name)
		}
		value.SetString(aws.StringValue(out.Parameter.Value))
	}
	return nil
}
