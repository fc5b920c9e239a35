package decision

import (
	"fmt"
	"strings"
)

const origin = "https://court.test"

const detailHeader = `<div class="col-md-8 text-right">
Номер дела: <b>2-101/2024 ~ М-50/2024</b><br>
Дата начала: <b>10.01.2024</b><br>
Суд: <b>Вахитовский районный суд г. Казани</b><br>
Судья: <b>Иванов Иван Иванович</b>
</div>`

const partiesTable = `<table class="table table-condensed">
<tr><th>Вид лица</th><th>ФИО</th></tr>
<tr><td>ИСТЕЦ</td><td>ПАО Сбербанк</td></tr>
<tr><td>ОТВЕТЧИК</td><td>Иванов И.И.</td></tr>
<tr><td>ОТВЕТЧИК</td><td>Петров П.П.</td></tr>
<tr><td>ТРЕТЬЕ ЛИЦО</td><td>ООО Страхование</td></tr>
<tr><td>ПРЕДСТАВИТЕЛЬ ОТВЕТЧИКА</td><td>Сидоров С.С.</td></tr>
</table>`

const movementTable = `<table class="table table-condensed">
<tr><th colspan="4">Движение дела</th></tr>
<tr><th>Наименование события</th><th>Результат</th><th>Основание</th><th>Дата</th></tr>
<tr><td>Регистрация иска (заявления, жалобы) в суде</td><td></td><td></td><td>10.01.2024</td></tr>
<tr><td>Подготовка дела</td><td></td><td></td><td>15.01.2024</td></tr>
<tr><td>Судебное заседание</td><td>Отложено</td><td>неявка</td><td>01.02.2024</td></tr>
<tr><td>Решение вынесено</td><td>Иск удовлетворен</td><td></td><td>15.03.2024</td></tr>
</table>`

const resultList = `<dl>
<dt>Результат:</dt><dd>Иск удовлетворен</dd>
<dt>Категория:</dt><dd>Имущественные споры / Иски о взыскании сумм по договору займа</dd>
</dl>`

var decisionParagraphs = []string{
	"Дело № 2-101/2024 Вахитовский районный суд г. Казани",
	"в составе председательствующего Иванова И.И.",
	"рассмотрев в открытом судебном заседании гражданское дело по иску банка",
	"к ответчику Петрову о взыскании задолженности по кредитному договору",
	"Руководствуясь ст. 194-198 ГПК РФ, суд решил: иск удовлетворить.",
	"Решение принято в окончательной форме 15 марта 2024 года.",
}

func justified(paras []string) string {
	var b strings.Builder
	for _, p := range paras {
		fmt.Fprintf(&b, `<p class="MsoNormal" style="TEXT-ALIGN: justify">%s</p>`, p)
	}
	return b.String()
}

func page(parts ...string) string {
	return "<html><head><script>var x = 'решил:';</script></head><body>" + strings.Join(parts, "\n") + "</body></html>"
}
